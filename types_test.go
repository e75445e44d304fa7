package shoutout

import (
	"testing"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"
)

func Test_RequiredSubscriptionConditionParams_Format(t *testing.T) {
	params := &RequiredSubscriptionConditionParams{
		ChannelUserId: "1337",
	}
	got, err := params.Format(&helix.EventSubCondition{
		FromBroadcasterUserID: "{{.ChannelUserId}}",
		RewardID:              "channel-{{.ChannelUserId}}-reward",
	})
	assert.NoError(t, err)
	assert.Equal(t, &helix.EventSubCondition{
		FromBroadcasterUserID: "1337",
		RewardID:              "channel-1337-reward",
	}, got)
}

func Test_RequiredSubscriptionConditionParams_Format_unknownField(t *testing.T) {
	params := &RequiredSubscriptionConditionParams{}
	_, err := params.Format(&helix.EventSubCondition{
		UserID: "{{.NoSuchField}}",
	})
	assert.Error(t, err)
}

func Test_Subscriptions_raidIsConditionedOnOurChannel(t *testing.T) {
	params := &RequiredSubscriptionConditionParams{ChannelUserId: "90001"}
	assert.Len(t, Subscriptions, 1)
	assert.Equal(t, helix.EventSubTypeChannelRaid, Subscriptions[0].Type)
	got, err := params.Format(&Subscriptions[0].TemplatedCondition)
	assert.NoError(t, err)
	assert.Equal(t, "90001", got.FromBroadcasterUserID)
	assert.Empty(t, got.ToBroadcasterUserID)
}

func Test_ChatterScopes(t *testing.T) {
	assert.ElementsMatch(t, []string{"user:write:chat", "user:bot"}, ChatterScopes)
}
