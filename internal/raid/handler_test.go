package raid

import (
	"context"
	"errors"
	"testing"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/shoutout/internal/apptoken"
	"github.com/golden-vcr/shoutout/internal/chat"
)

func Test_Handler_HandleRaid(t *testing.T) {
	ev := &helix.EventSubChannelRaidEvent{
		FromBroadcasterUserID:    "1",
		FromBroadcasterUserLogin: "alice",
		FromBroadcasterUserName:  "Alice",
		ToBroadcasterUserID:      "2",
		ToBroadcasterUserLogin:   "bob",
		ToBroadcasterUserName:    "Bob",
		Viewers:                  42,
	}
	tests := []struct {
		name          string
		tokens        *mockTokenSource
		sender        *mockSender
		ev            *helix.EventSubChannelRaidEvent
		wantErr       string
		wantSent      []sentMessage
		wantRefreshes int
	}{
		{
			"message is sent to the raiding broadcaster with a fresh token",
			&mockTokenSource{token: apptoken.Token{AccessToken: "fresh"}},
			&mockSender{},
			ev,
			"",
			[]sentMessage{{"fresh", chat.Message{BroadcasterId: "1", SenderId: "99", Message: "Thanks Bob (bob) for hosting our 42 viewers!"}}},
			1,
		},
		{
			"failed refresh still attempts send with previous token",
			&mockTokenSource{token: apptoken.Token{AccessToken: "stale"}, err: apptoken.ErrRefreshFailed},
			&mockSender{},
			ev,
			"",
			[]sentMessage{{"stale", chat.Message{BroadcasterId: "1", SenderId: "99", Message: "Thanks Bob (bob) for hosting our 42 viewers!"}}},
			1,
		},
		{
			"forbidden send is reported",
			&mockTokenSource{token: apptoken.Token{AccessToken: "fresh"}},
			&mockSender{err: &chat.SendError{StatusCode: 403}},
			ev,
			"sender 99 is not permitted to chat in channel 1",
			[]sentMessage{{"fresh", chat.Message{BroadcasterId: "1", SenderId: "99", Message: "Thanks Bob (bob) for hosting our 42 viewers!"}}},
			1,
		},
		{
			"event without a raiding broadcaster is rejected before anything is sent",
			&mockTokenSource{token: apptoken.Token{AccessToken: "fresh"}},
			&mockSender{},
			&helix.EventSubChannelRaidEvent{ToBroadcasterUserID: "2", Viewers: 3},
			"raid event has no from_broadcaster_user_id",
			nil,
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.tokens, tt.sender, "99", "Thanks <to_broadcaster_user_name> (<to_broadcaster_user_login>) for hosting our <viewers> viewers!", nil)
			err := h.HandleRaid(context.Background(), slog.Default(), tt.ev)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantSent, tt.sender.sent)
			assert.Equal(t, tt.wantRefreshes, tt.tokens.numRefreshes)
		})
	}
}

func Test_Handler_HandleRaid_sendErrorIsWrapped(t *testing.T) {
	sender := &mockSender{err: &chat.SendError{StatusCode: 422}}
	h := NewHandler(&mockTokenSource{}, sender, "99", "<viewers>", nil)
	err := h.HandleRaid(context.Background(), slog.Default(), &helix.EventSubChannelRaidEvent{FromBroadcasterUserID: "1"})
	var sendErr *chat.SendError
	assert.True(t, errors.As(err, &sendErr))
	assert.True(t, sendErr.TooLong())
}

type mockTokenSource struct {
	token        apptoken.Token
	err          error
	numRefreshes int
}

func (m *mockTokenSource) Refresh(ctx context.Context) (apptoken.Token, error) {
	m.numRefreshes++
	return m.token, m.err
}

type sentMessage struct {
	accessToken string
	msg         chat.Message
}

type mockSender struct {
	err  error
	sent []sentMessage
}

func (m *mockSender) Send(ctx context.Context, logger *slog.Logger, accessToken string, msg chat.Message) error {
	m.sent = append(m.sent, sentMessage{accessToken, msg})
	return m.err
}
