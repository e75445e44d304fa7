// Command simulate sends a correctly-signed EventSub message to a locally running
// shoutout server, so the webhook can be exercised without involving Twitch
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/codingconcepts/env"
	"github.com/golden-vcr/server-common/twitch"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nicklaw5/helix/v2"

	"github.com/golden-vcr/shoutout"
	"github.com/golden-vcr/shoutout/internal/callback"
	"github.com/golden-vcr/shoutout/internal/signature"
)

type Config struct {
	ListenPort          uint16 `env:"LISTEN_PORT" default:"3000"`
	TwitchChannelName   string `env:"TWITCH_CHANNEL_NAME" required:"true"`
	TwitchClientId      string `env:"TWITCH_CLIENT_ID" required:"true"`
	TwitchClientSecret  string `env:"TWITCH_CLIENT_SECRET" required:"true"`
	TwitchWebhookSecret string `env:"TWITCH_WEBHOOK_SECRET" required:"true"`
}

type MessagePayload struct {
	Subscription helix.EventSubSubscription `json:"subscription"`
	Challenge    string                     `json:"challenge,omitempty"`
	Event        json.RawMessage            `json:"event,omitempty"`
}

// Command builds a message of a particular type; the returned payload only needs its
// type-specific fields filled in
type Command struct {
	name        string
	messageType string
	wantStatus  int
	initFunc    func(cmd *flag.FlagSet)
	runFunc     func(channelName, channelUserId string, payload *MessagePayload)
}

var commands = []Command{
	{"raid", callback.MessageTypeNotification, http.StatusNoContent, initRaidCommand, runRaidCommand},
	{"challenge", callback.MessageTypeVerification, http.StatusOK, initChallengeCommand, runChallengeCommand},
	{"revoke", callback.MessageTypeRevocation, http.StatusNoContent, initRevokeCommand, runRevokeCommand},
}

func main() {
	// Parse config from environment variables
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// We only ever simulate events against a local server
	url := fmt.Sprintf("http://localhost:%d/", config.ListenPort)

	// Parse the subcommand that we want to run, or print usage if no match
	var command *Command
	commandName := ""
	if len(os.Args) > 1 {
		commandName = os.Args[1]
	}
	for i := range commands {
		if commands[i].name == commandName {
			command = &commands[i]
			break
		}
	}
	if command == nil {
		commandNames := make([]string, 0, len(commands))
		for i := range commands {
			commandNames = append(commandNames, commands[i].name)
		}
		log.Fatalf("Usage: simulate [%s]", strings.Join(commandNames, "|"))
	}
	flagSet := flag.NewFlagSet(command.name, flag.ExitOnError)
	command.initFunc(flagSet)
	if err := flagSet.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Parse error: %v", err)
	}

	// Resolve the Twitch User ID of our channel, so the payload has a realistic
	// subscription condition
	twitchClient, err := twitch.NewClientWithAppToken(context.Background(), config.TwitchClientId, config.TwitchClientSecret)
	if err != nil {
		log.Fatalf("Failed to initialize Twitch API client: %v", err)
	}
	channelUserId, err := twitch.ResolveChannelUserId(twitchClient, config.TwitchChannelName)
	if err != nil {
		log.Fatalf("Failed to resolve Twitch user ID for channel '%s': %v", config.TwitchChannelName, err)
	}

	// Every message concerns our one required subscription
	required := shoutout.Subscriptions[0]
	params := shoutout.RequiredSubscriptionConditionParams{ChannelUserId: channelUserId}
	cond, err := params.Format(&required.TemplatedCondition)
	if err != nil {
		log.Fatalf("failed to format subscription condition from template: %v", err)
	}
	payload := MessagePayload{
		Subscription: helix.EventSubSubscription{
			ID:        uuid.NewString(),
			Type:      required.Type,
			Version:   required.Version,
			Status:    helix.EventSubStatusEnabled,
			Condition: *cond,
			Transport: helix.EventSubTransport{Method: "webhook", Callback: url},
			CreatedAt: helix.Time{Time: time.Now().Add(-5 * time.Minute)},
		},
	}
	command.runFunc(config.TwitchChannelName, channelUserId, &payload)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("failed to encode message payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		log.Fatalf("error initializing HTTP request: %v", err)
	}

	// Identify and sign the message the same way Twitch does
	messageId := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	req.Header.Set(signature.HeaderMessageId, messageId)
	req.Header.Set(signature.HeaderMessageTimestamp, timestamp)
	req.Header.Set(signature.HeaderMessageType, command.messageType)
	req.Header.Set(signature.HeaderMessageSignature, signature.Compute(config.TwitchWebhookSecret, messageId, timestamp, body))
	req.Header.Set("content-type", "application/json")

	fmt.Printf("%s %s\n", req.Method, req.URL)
	for k, values := range req.Header {
		for _, v := range values {
			fmt.Printf("> %s: %s\n", k, v)
		}
	}
	pretty, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		log.Fatalf("failed to pretty-print JSON payload: %v", err)
	}
	fmt.Printf("\n%s\n\n", pretty)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("error sending HTTP request: %v", err)
	}
	defer res.Body.Close()
	resBody, _ := io.ReadAll(res.Body)
	fmt.Printf("< %d\n", res.StatusCode)
	if len(resBody) > 0 {
		fmt.Printf("< %s\n", resBody)
	}
	if res.StatusCode != command.wantStatus {
		log.Fatalf("expected response %d", command.wantStatus)
	}
}
