package cli

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"

	"OtaUpdateServer/internal/model"
)

type appCommand struct {
	fs      *flag.FlagSet
	create  bool
	name    string
	appKey  string
	channel string
	list    bool
}

func AppCommand() Command {
	cmd := &appCommand{
		fs: flag.NewFlagSet("app", flag.ExitOnError),
	}

	cmd.fs.BoolVar(&cmd.create, "create", false, "Create a new app. Name and key must be specified when creating a new app")
	cmd.fs.StringVar(&cmd.name, "name", "", "Name of the app")
	cmd.fs.StringVar(&cmd.appKey, "key", "", "App key the client sdk identifies itself with, e.g. com.example.app")
	cmd.fs.StringVar(&cmd.channel, "channel", "", "Default update channel for the app")
	cmd.fs.BoolVar(&cmd.list, "list", false, "List all current apps")

	return cmd
}

func (c *appCommand) Init(args []string) error {
	return c.fs.Parse(args)
}

func (c *appCommand) Run() {
	if !(c.create || c.list) {
		fmt.Println("Missing create or list flag")
		c.fs.Usage()
		return
	}

	if c.create && c.list {
		fmt.Println("Cannot both create new and list current apps at the same time")
		c.fs.Usage()
		return
	}

	if c.create && (c.name == "" || c.appKey == "") {
		fmt.Println("Name and key must be specified when creating app")
		c.fs.Usage()
		return
	}

	if c.create {
		err := createApp(c.appKey, c.name, c.channel)
		if err != nil {
			fmt.Printf("Error creating new app: %v\n", err)
		}
		return
	}

	apps, err := getApps()
	if err != nil {
		fmt.Printf("Could not get apps! Error: %v\n", err)
		return
	}
	if len(apps) == 0 {
		fmt.Println("No apps were returned!")
		return
	}

	fmt.Println("Available apps:")
	fmt.Printf("\tID\tKEY\tNAME\tDEFAULT CHANNEL\n")
	for _, app := range apps {
		fmt.Printf("\t%d\t%s\t%s\t%s\n", app.Id, app.AppKey, app.Name, app.DefaultChannel)
	}
}

func (c *appCommand) Name() string {
	return c.fs.Name()
}

func (c *appCommand) Description() string {
	return "Create new or list current apps"
}

func createApp(appKey, name, channel string) error {
	body := map[string]string{
		"appKey":         appKey,
		"name":           name,
		"defaultChannel": channel,
	}

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/app/v1/apps", baseUrl), bytes.NewReader(jsonBytes))
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
		return fmt.Errorf("Creating new app failed with status %d, and body: \n%v\nMAKE SURE ENV VAR 'OTA_CLI_SESSION' IS SET!", res.StatusCode, resBody)
	}

	fmt.Printf("New app created!\nReturned id: '%v'\n", resBody["id"])

	return nil
}

func getApps() ([]model.GetAppDTO, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/app/v1/apps", baseUrl), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", session))

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Getting apps failed with status %d", res.StatusCode)
	}

	var resBody struct {
		Message string            `json:"message"`
		Apps    []model.GetAppDTO `json:"apps"`
	}
	if err = json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return nil, err
	}

	return resBody.Apps, nil
}
