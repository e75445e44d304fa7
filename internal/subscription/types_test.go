package subscription

import (
	"testing"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"
)

func Test_conditionToMap(t *testing.T) {
	tests := []struct {
		name string
		cond *helix.EventSubCondition
		want map[string]string
	}{
		{
			"empty condition yields empty map",
			&helix.EventSubCondition{},
			map[string]string{},
		},
		{
			"raid condition is conveyed",
			&helix.EventSubCondition{
				FromBroadcasterUserID: "1337",
			},
			map[string]string{
				"from_broadcaster_user_id": "1337",
			},
		},
		{
			"multiple fields are conveyed",
			&helix.EventSubCondition{
				BroadcasterUserID: "1337",
				ModeratorUserID:   "1337",
				ClientID:          "foobar",
			},
			map[string]string{
				"broadcaster_user_id": "1337",
				"moderator_user_id":   "1337",
				"client_id":           "foobar",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := conditionToMap(tt.cond)
			assert.Equal(t, tt.want, got)

			roundTripped, err := conditionFromMap(got)
			assert.NoError(t, err)
			assert.Equal(t, *tt.cond, roundTripped)
		})
	}
}
