package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
)

type registerCommand struct {
	fs       *flag.FlagSet
	username string
}

func RegisterCommand() Command {
	cmd := &registerCommand{
		fs: flag.NewFlagSet("register", flag.ExitOnError),
	}

	cmd.fs.StringVar(&cmd.username, "user", "", "Your username, used to login")

	return cmd
}

func (c *registerCommand) Init(args []string) error {
	return c.fs.Parse(args)
}

func (c *registerCommand) Run() {
	reader := bufio.NewReader(os.Stdin)
	if c.username == "" {
		fmt.Print("Enter username: ")
		text, _ := reader.ReadString('\n')
		c.username = strings.TrimSpace(text)
	}

	fmt.Print("Enter password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	fmt.Println("Registering publisher")
	publisherId, err := register(c.username, password)
	if err != nil {
		fmt.Printf("Registration failed! Error: %v\n", err)
		return
	}

	fmt.Println("Signing in")
	sessionId, err := signInNewPublisher(c.username, password)
	if err != nil {
		fmt.Printf("Sign in failed! Error: %v\n", err)
		return
	}

	fmt.Printf("Successfully created a new publisher!\n    PublisherID = %d\n", publisherId)

	fmt.Printf("To use the cli run the following command:\n$ export OTA_CLI_SESSION=%s\n", sessionId)
}

func (c *registerCommand) Name() string {
	return c.fs.Name()
}

func (c *registerCommand) Description() string {
	return "Register to use the cli"
}

func register(username, password string) (int, error) {
	body := map[string]string{
		"name":     username,
		"password": password,
	}

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return -1, err
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/auth/register", baseUrl), bytes.NewReader(jsonBytes))
	if err != nil {
		return -1, err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return -1, err
	}

	var resBody map[string]any
	if err = json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return -1, err
	}

	if res.StatusCode != http.StatusCreated {
		return -1, fmt.Errorf("Status %d, and message: %v", res.StatusCode, resBody["message"])
	}

	fmt.Println("Registration successful!")

	publisherId := resBody["id"].(float64)

	return int(publisherId), nil
}

func signInNewPublisher(name, pw string) (string, error) {
	body := map[string]string{
		"username": name,
		"password": pw,
	}

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/auth/sign-in", baseUrl), bytes.NewReader(jsonBytes))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}

	var resBody map[string]any
	if err = json.NewDecoder(res.Body).Decode(&resBody); err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("Status %d, and message: %v", res.StatusCode, resBody["message"])
	}

	fmt.Println("Sign in successful!")

	return resBody["sessionId"].(string), nil
}
