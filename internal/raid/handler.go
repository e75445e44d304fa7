// Package raid posts a shoutout in the raiding broadcaster's chat whenever a
// channel.raid notification arrives
package raid

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/shoutout/internal/apptoken"
	"github.com/golden-vcr/shoutout/internal/chat"
	"github.com/golden-vcr/shoutout/internal/metrics"
)

// TokenSource supplies the app access token used to send chat messages
type TokenSource interface {
	Refresh(ctx context.Context) (apptoken.Token, error)
}

type Handler struct {
	tokens   TokenSource
	sender   chat.Sender
	senderId string
	template string
	metrics  *metrics.Metrics
}

func NewHandler(tokens TokenSource, sender chat.Sender, senderId, template string, m *metrics.Metrics) *Handler {
	return &Handler{
		tokens:   tokens,
		sender:   sender,
		senderId: senderId,
		template: template,
		metrics:  m,
	}
}

// HandleRaid fetches a fresh app access token and then sends our templated message to
// the chat of the broadcaster who initiated the raid. Raids are rare, so we refresh
// every time rather than tracking token expiry.
func (h *Handler) HandleRaid(ctx context.Context, logger *slog.Logger, ev *helix.EventSubChannelRaidEvent) error {
	if ev.FromBroadcasterUserID == "" {
		return fmt.Errorf("raid event has no from_broadcaster_user_id")
	}

	// A failed refresh leaves us with whatever token we had before (possibly none):
	// we try the send anyway and let Twitch tell us whether it's still good
	token, err := h.tokens.Refresh(ctx)
	if err != nil {
		logger.Warn("Failed to refresh app access token", "error", err, "haveToken", token.Valid())
	}

	message := FormatMessage(h.template, ev)
	err = h.sender.Send(ctx, logger, token.AccessToken, chat.Message{
		BroadcasterId: ev.FromBroadcasterUserID,
		SenderId:      h.senderId,
		Message:       message,
	})

	var sendErr *chat.SendError
	switch {
	case err == nil:
		h.metrics.ChatSent(http.StatusOK)
	case errors.As(err, &sendErr):
		h.metrics.ChatSent(sendErr.StatusCode)
		if sendErr.Forbidden() {
			return fmt.Errorf("sender %s is not permitted to chat in channel %s: %w", h.senderId, ev.FromBroadcasterUserID, err)
		}
		if sendErr.TooLong() {
			return fmt.Errorf("raid message is too long (%d bytes): %w", len(message), err)
		}
	default:
		h.metrics.ChatSent(0)
	}
	return err
}
