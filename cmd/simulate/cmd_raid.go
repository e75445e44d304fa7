package main

import (
	"encoding/json"
	"flag"
	"strings"

	"github.com/nicklaw5/helix/v2"
)

var raidTargetName string
var raidTargetUserId string
var raidNumViewers int

func initRaidCommand(cmd *flag.FlagSet) {
	cmd.StringVar(&raidTargetName, "target", "BigJoeBob", "Twitch Display Name of the channel that we're raiding")
	cmd.StringVar(&raidTargetUserId, "target-id", "1337", "Twitch User ID of the channel that we're raiding")
	cmd.IntVar(&raidNumViewers, "num-viewers", 99, "Number of viewers in the raid")
}

func runRaidCommand(channelName, channelUserId string, payload *MessagePayload) {
	ev, err := json.Marshal(helix.EventSubChannelRaidEvent{
		FromBroadcasterUserID:    channelUserId,
		FromBroadcasterUserLogin: strings.ToLower(channelName),
		FromBroadcasterUserName:  channelName,
		ToBroadcasterUserID:      raidTargetUserId,
		ToBroadcasterUserLogin:   strings.ToLower(raidTargetName),
		ToBroadcasterUserName:    raidTargetName,
		Viewers:                  raidNumViewers,
	})
	if err != nil {
		panic(err)
	}
	payload.Event = ev
}
