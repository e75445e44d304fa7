package main

import (
	"flag"

	"github.com/google/uuid"
)

var challengeValue string

func initChallengeCommand(cmd *flag.FlagSet) {
	cmd.StringVar(&challengeValue, "challenge", uuid.NewString(), "Challenge value that the server should echo back")
}

func runChallengeCommand(channelName, channelUserId string, payload *MessagePayload) {
	payload.Subscription.Status = "webhook_callback_verification_pending"
	payload.Challenge = challengeValue
}
