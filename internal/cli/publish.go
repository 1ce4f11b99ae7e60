package cli

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"OtaUpdateServer/internal/integrity"
	"OtaUpdateServer/internal/model"
)

type publishCommand struct {
	fs          *flag.FlagSet
	appId       int
	channel     string
	platform    string
	version     string
	file        string
	downloadUrl string
	storagePath string
	minNative   int
	required    bool
}

func PublishCommand() Command {
	cmd := &publishCommand{
		fs: flag.NewFlagSet("publish", flag.ExitOnError),
	}

	cmd.fs.IntVar(&cmd.appId, "app", -1, "Id of the app the bundle belongs to")
	cmd.fs.StringVar(&cmd.channel, "channel", "production", "Channel the bundle goes live on")
	cmd.fs.StringVar(&cmd.platform, "platform", "", "Target platform, ios or android")
	cmd.fs.StringVar(&cmd.version, "version", "", "Bundle version, e.g. 1.4.0")
	cmd.fs.StringVar(&cmd.file, "file", "", "Path to the bundle artifact, used to compute its checksum")
	cmd.fs.StringVar(&cmd.downloadUrl, "url", "", "Absolute download url for the bundle")
	cmd.fs.StringVar(&cmd.storagePath, "path", "", "Storage path relative to the configured bundle base url")
	cmd.fs.IntVar(&cmd.minNative, "min-native", 0, "Minimum native build number the bundle runs on")
	cmd.fs.BoolVar(&cmd.required, "required", false, "Mark the update as required")

	return cmd
}

func (c *publishCommand) Init(args []string) error {
	return c.fs.Parse(args)
}

func (c *publishCommand) Run() {
	if c.appId == -1 || c.platform == "" || c.version == "" || c.file == "" {
		fmt.Println("app, platform, version and file must all be specified")
		c.fs.Usage()
		return
	}
	if c.downloadUrl == "" && c.storagePath == "" {
		fmt.Println("Either url or path must be specified")
		c.fs.Usage()
		return
	}

	checksum, err := fileChecksum(c.file)
	if err != nil {
		fmt.Printf("Could not compute checksum of '%s': %v\n", c.file, err)
		return
	}
	fmt.Printf("Bundle checksum: %s\n", checksum)

	err = publishBundle(c, checksum)
	if err != nil {
		fmt.Printf("Error publishing bundle: %v\n", err)
		return
	}
}

func (c *publishCommand) Name() string {
	return c.fs.Name()
}

func (c *publishCommand) Description() string {
	return "Publish a bundle and make it live on a channel"
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return integrity.Checksum(f)
}

func publishBundle(c *publishCommand, checksum string) error {
	body := model.PublishBundleDTO{
		AppId:            c.appId,
		Channel:          c.channel,
		Platform:         c.platform,
		Version:          c.version,
		DownloadUrl:      c.downloadUrl,
		StoragePath:      c.storagePath,
		Checksum:         checksum,
		MinNativeVersion: c.minNative,
		Required:         c.required,
	}

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/app/v1/bundles", baseUrl), bytes.NewReader(jsonBytes))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", session))

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	var resBody map[string]any
	if err = json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return err
	}

	if res.StatusCode != http.StatusCreated {
		return fmt.Errorf("Publishing bundle failed with status %d, and body: \n%v\nMAKE SURE ENV VAR 'OTA_CLI_SESSION' IS SET!", res.StatusCode, resBody)
	}

	fmt.Printf("Bundle published!\nReturned id: '%v'\n", resBody["id"])

	return nil
}
