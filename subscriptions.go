package shoutout

import (
	"github.com/nicklaw5/helix/v2"
)

// Subscriptions declares all of the Twitch EventSub webhook subscriptions that must be
// registered for the raid shoutout to work: we only care about raids that originate
// from our own channel, since the shoutout is posted in the raiding broadcaster's chat
var Subscriptions = RequiredSubscriptions{
	{
		Type:    helix.EventSubTypeChannelRaid,
		Version: "1",
		TemplatedCondition: helix.EventSubCondition{
			FromBroadcasterUserID: "{{.ChannelUserId}}",
		},
	},
}

// ChatterScopes are the user scopes that the chatter account (i.e. the account whose
// user ID is configured as the sender of raid messages) must grant to our app
var ChatterScopes = []string{
	"user:write:chat",
	"user:bot",
}
