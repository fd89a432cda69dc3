package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// The CLI relays free-text instructions to a relay's /chat endpoint. Tutorial
// mode walks through a full swap; chat mode is a plain prompt loop. Type
// "exit" to quit.

var tutorialSteps = []struct {
	Explain     string
	Instruction string
}{
	{
		"Step 1: ask the agent to quote a swap of 25 source units. The rate is\n" +
			"snapshotted now and frozen on the request.",
		"swap 25 USD/JPY",
	},
	{
		"Step 2: pay the request. Copy the request id from the previous response\n" +
			"and run: pay <requestId>. You will receive a signed payment proof.",
		"",
	},
	{
		"Step 3: settle with the proof. Run: settle <proof>. A second settle with\n" +
			"the same proof is rejected as a duplicate execution.",
		"",
	},
}

func main() {
	url := flag.String("url", "http://localhost:8080", "relay base URL")
	mode := flag.String("mode", "chat", "cli mode: chat or tutorial")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}
	token := os.Getenv("AGENT_TOKEN")

	fmt.Printf("agentswap cli (%s mode), talking to %s\n", *mode, *url)
	fmt.Println(`Type "exit" to quit.`)

	if *mode == "tutorial" {
		runTutorial(client, *url, token)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			return
		}
		fmt.Println(sendChat(client, *url, token, line))
	}
}

func runTutorial(client *http.Client, url, token string) {
	scanner := bufio.NewScanner(os.Stdin)

	for _, step := range tutorialSteps {
		fmt.Println()
		fmt.Println(step.Explain)

		instruction := step.Instruction
		if instruction == "" {
			fmt.Print("> ")
			if !scanner.Scan() {
				return
			}
			instruction = strings.TrimSpace(scanner.Text())
			if instruction == "exit" {
				return
			}
		} else {
			fmt.Printf("> %s\n", instruction)
		}

		fmt.Println(sendChat(client, url, token, instruction))
	}

	fmt.Println("\nTutorial complete. Re-run step 3 to see the duplicate rejection.")
}

func sendChat(client *http.Client, url, token, instruction string) string {
	body, _ := json.Marshal(map[string]string{"instruction": instruction})

	req, err := http.NewRequest(http.MethodPost, url+"/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Result string `json:"result"`
		Token  string `json:"token"`
		Error  string `json:"error"`
		Code   string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Sprintf("error: unreadable response: %v", err)
	}

	switch {
	case parsed.Error != "":
		if parsed.Code != "" {
			return fmt.Sprintf("error [%s]: %s", parsed.Code, parsed.Error)
		}
		return fmt.Sprintf("error: %s", parsed.Error)
	case parsed.Token != "":
		return fmt.Sprintf("signed result: %s", parsed.Token)
	default:
		return parsed.Result
	}
}
