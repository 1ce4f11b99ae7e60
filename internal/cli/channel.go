package cli

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"

	"OtaUpdateServer/internal/model"
)

type channelCommand struct {
	fs         *flag.FlagSet
	create     bool
	list       bool
	appId      int
	name       string
	public     bool
	selfAssign bool
	devBuilds  bool
	emulator   bool
	ios        bool
	android    bool
}

func ChannelCommand() Command {
	cmd := &channelCommand{
		fs: flag.NewFlagSet("channels", flag.ExitOnError),
	}

	cmd.fs.BoolVar(&cmd.create, "create", false, "Create a new channel. App id and name must be specified")
	cmd.fs.BoolVar(&cmd.list, "list", false, "List the channels of the app specified with 'app'")
	cmd.fs.IntVar(&cmd.appId, "app", -1, "Id of the app the channel belongs to")
	cmd.fs.StringVar(&cmd.name, "name", "", "Name of the channel, e.g. production or beta")
	cmd.fs.BoolVar(&cmd.public, "public", false, "List the channel to devices")
	cmd.fs.BoolVar(&cmd.selfAssign, "self-assign", false, "Allow devices to assign themselves to the channel")
	cmd.fs.BoolVar(&cmd.devBuilds, "dev-builds", false, "Allow development builds on the channel")
	cmd.fs.BoolVar(&cmd.emulator, "emulator", false, "Allow emulator devices on the channel")
	cmd.fs.BoolVar(&cmd.ios, "ios", true, "Serve the channel to ios devices")
	cmd.fs.BoolVar(&cmd.android, "android", true, "Serve the channel to android devices")

	return cmd
}

func (c *channelCommand) Init(args []string) error {
	return c.fs.Parse(args)
}

func (c *channelCommand) Run() {
	if c.appId == -1 {
		fmt.Println("Missing app flag")
		c.fs.Usage()
		return
	}

	if c.create {
		if c.name == "" {
			fmt.Println("Name must be specified when creating channel")
			c.fs.Usage()
			return
		}
		err := createChannel(c)
		if err != nil {
			fmt.Printf("Error creating new channel: %v\n", err)
		}
		return
	}

	if !c.list {
		fmt.Println("Missing create or list flag")
		c.fs.Usage()
		return
	}

	channels, err := getChannels(c.appId)
	if err != nil {
		fmt.Printf("Could not get channels! Error: %v\n", err)
		return
	}
	if len(channels) == 0 {
		fmt.Println("No channels were returned!")
		return
	}

	fmt.Println("Channels:")
	fmt.Printf("\tID\tNAME\tPUBLIC\tSELF-ASSIGN\tIOS\tANDROID\n")
	for _, channel := range channels {
		fmt.Printf("\t%d\t%s\t%t\t%t\t%t\t%t\n",
			channel.Id,
			channel.Name,
			channel.IsPublic,
			channel.AllowDeviceSelfAssign,
			channel.IosEnabled,
			channel.AndroidEnabled,
		)
	}
}

func (c *channelCommand) Name() string {
	return c.fs.Name()
}

func (c *channelCommand) Description() string {
	return "Create new or list current channels for an app"
}

func createChannel(c *channelCommand) error {
	body := model.CreateChannelDTO{
		Name:                  c.name,
		IsPublic:              c.public,
		AllowDeviceSelfAssign: c.selfAssign,
		AllowDevBuilds:        c.devBuilds,
		AllowEmulator:         c.emulator,
		IosEnabled:            c.ios,
		AndroidEnabled:        c.android,
	}

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/app/v1/apps/%d/channels", baseUrl, c.appId), bytes.NewReader(jsonBytes))
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
		return fmt.Errorf("Creating new channel failed with status %d, and body: \n%v\nMAKE SURE ENV VAR 'OTA_CLI_SESSION' IS SET!", res.StatusCode, resBody)
	}

	fmt.Printf("New channel created!\nReturned id: '%v'\n", resBody["id"])

	return nil
}

func getChannels(appId int) ([]model.GetChannelDTO, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/app/v1/apps/%d/channels", baseUrl, appId), nil)
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
		return nil, fmt.Errorf("Getting channels failed with status %d", res.StatusCode)
	}

	var resBody struct {
		Message  string                `json:"message"`
		Channels []model.GetChannelDTO `json:"channels"`
	}
	if err = json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return nil, err
	}

	return resBody.Channels, nil
}
