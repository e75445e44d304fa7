package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/golden-vcr/server-common/entry"
	"github.com/gorilla/mux"
	"github.com/nicklaw5/helix/v2"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/shoutout/internal/fanout"
	"github.com/golden-vcr/shoutout/internal/metrics"
	"github.com/golden-vcr/shoutout/internal/signature"
)

const (
	MessageTypeVerification = "webhook_callback_verification"
	MessageTypeNotification = "notification"
	MessageTypeRevocation   = "revocation"
)

const indexText = "Twitch Raid EventSub Webhook Endpoint"

type VerifyNotificationFunc func(header http.Header, body []byte) bool

// RaidHandler reacts to a channel.raid notification
type RaidHandler interface {
	HandleRaid(ctx context.Context, logger *slog.Logger, ev *helix.EventSubChannelRaidEvent) error
}

type Server struct {
	verifyNotification VerifyNotificationFunc
	raids              RaidHandler
	publisher          fanout.Publisher
	metrics            *metrics.Metrics
}

func NewServer(twitchWebhookSecret string, raids RaidHandler, publisher fanout.Publisher, m *metrics.Metrics) *Server {
	return &Server{
		verifyNotification: func(header http.Header, body []byte) bool {
			return signature.VerifyRequest(header, body, twitchWebhookSecret)
		},
		raids:     raids,
		publisher: publisher,
		metrics:   m,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/").Methods("GET").HandlerFunc(s.handleGetIndex)
	r.Path("/").Methods("POST").HandlerFunc(s.handlePostCallback)
}

type messagePayload struct {
	Subscription helix.EventSubSubscription `json:"subscription"`
	Challenge    string                     `json:"challenge"`
	Event        json.RawMessage            `json:"event"`
}

func (s *Server) handleGetIndex(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("content-type", "text/plain; charset=utf-8")
	res.Write([]byte(indexText))
}

func (s *Server) handlePostCallback(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	// Read the raw request body up front: the signature covers the exact bytes
	body, err := io.ReadAll(req.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	defer req.Body.Close()

	// Verify that this event comes from Twitch: abort if phony
	if !s.verifyNotification(req.Header, body) {
		logger.Error("Failed to verify signature")
		s.metrics.SignatureFailed()
		http.Error(res, "Signature verification failed", http.StatusForbidden)
		return
	}

	messageType := req.Header.Get(signature.HeaderMessageType)
	logger = logger.With(
		"messageId", req.Header.Get(signature.HeaderMessageId),
		"messageType", messageType,
	)
	switch messageType {
	case MessageTypeVerification, MessageTypeNotification, MessageTypeRevocation:
	default:
		logger.Warn("Unknown message type")
		s.metrics.MessageReceived("unknown", "")
		res.WriteHeader(http.StatusNoContent)
		return
	}

	var payload messagePayload
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		logger.Error("Failed to decode request body", "error", err)
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	s.metrics.MessageReceived(messageType, payload.Subscription.Type)
	logger = logger.With(
		"subscriptionId", payload.Subscription.ID,
		"subscriptionType", payload.Subscription.Type,
		"subscriptionVersion", payload.Subscription.Version,
	)

	switch messageType {
	case MessageTypeVerification:
		// Twitch is confirming registration of a new subscription: echoing the
		// challenge back verbatim enables it
		logger.Info("Responding to challenge", "challenge", payload.Challenge)
		res.Header().Set("content-type", "text/plain")
		res.WriteHeader(http.StatusOK)
		res.Write([]byte(payload.Challenge))
	case MessageTypeNotification:
		s.handleNotification(req.Context(), logger, req.Header.Get(signature.HeaderMessageId), &payload)
		res.WriteHeader(http.StatusNoContent)
	case MessageTypeRevocation:
		res.WriteHeader(http.StatusNoContent)
		logger.Warn("EventSub subscription revoked",
			"reason", payload.Subscription.Status,
			"condition", payload.Subscription.Condition,
		)
	}
}

// handleNotification acts on a verified notification. Failures are logged and
// swallowed, since the response to Twitch is the same either way.
func (s *Server) handleNotification(ctx context.Context, logger *slog.Logger, messageId string, payload *messagePayload) {
	if err := s.publisher.Publish(ctx, messageId, payload.Subscription.Type, payload.Event); err != nil {
		logger.Error("Failed to publish event", "error", err)
	}

	if payload.Subscription.Type != helix.EventSubTypeChannelRaid {
		logger.Info("Ignoring event", "event", string(payload.Event))
		return
	}

	var ev helix.EventSubChannelRaidEvent
	if err := json.Unmarshal(payload.Event, &ev); err != nil {
		logger.Error("Failed to decode raid event", "error", err, "event", string(payload.Event))
		return
	}
	logger = logger.With(
		"fromBroadcasterUserId", ev.FromBroadcasterUserID,
		"toBroadcasterUserId", ev.ToBroadcasterUserID,
		"viewers", ev.Viewers,
	)
	if err := s.raids.HandleRaid(ctx, logger, &ev); err != nil {
		logger.Error("Failed to handle raid", "error", err)
		return
	}
	logger.Info("Handled raid")
}
