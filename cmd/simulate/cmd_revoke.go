package main

import (
	"flag"
)

var revokeReason string

func initRevokeCommand(cmd *flag.FlagSet) {
	cmd.StringVar(&revokeReason, "reason", "authorization_revoked", "Subscription status conveyed as the reason for revocation")
}

func runRevokeCommand(channelName, channelUserId string, payload *MessagePayload) {
	payload.Subscription.Status = revokeReason
}
