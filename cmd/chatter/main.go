// Command chatter runs the device code flow to get a user access token for the account
// that sends raid messages. Run it once, open the printed URL in a browser logged in as
// that account, and enter the code shown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/shoutout"
	"github.com/golden-vcr/shoutout/internal/deviceauth"
)

type Config struct {
	TwitchClientId    string        `env:"TWITCH_CLIENT_ID" required:"true"`
	DeviceAuthTimeout time.Duration `env:"DEVICE_AUTH_TIMEOUT" default:"10m"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	c := deviceauth.NewClient(config.TwitchClientId, shoutout.ChatterScopes, deviceauth.NewHelixUserLookup(config.TwitchClientId), logger)

	session, err := c.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start device code flow: %v", err)
	}
	fmt.Printf("Open %s in a browser and enter %s there!\n", session.VerificationURI, session.UserCode)

	timeout := config.DeviceAuthTimeout
	if session.ExpiresIn > 0 && time.Duration(session.ExpiresIn)*time.Second < timeout {
		timeout = time.Duration(session.ExpiresIn) * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Wait(waitCtx, session); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Fatalf("Gave up waiting for authorization after %s", timeout)
		}
		log.Fatalf("Device code flow failed: %v", err)
	}

	fmt.Printf("Got Device Code Flow Tokens for Chatter %s (%s)\n", session.User.DisplayName, session.User.Login)
	fmt.Printf("TWITCH_SENDER_ID=%s\n", session.User.Id)
	fmt.Printf("access token:  %s\n", session.AccessToken)
	fmt.Printf("refresh token: %s\n", session.RefreshToken)
}
