// Package subscription exposes broadcaster-only endpoints for checking on, creating,
// and removing the EventSub subscriptions that deliver raid notifications to us
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golden-vcr/auth"
	"github.com/golden-vcr/server-common/entry"
	"github.com/golden-vcr/server-common/twitch"
	"github.com/gorilla/mux"
	"github.com/nicklaw5/helix/v2"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/shoutout"
)

type NewTwitchClientFunc func(ctx context.Context) (TwitchClient, error)

type Server struct {
	callbackUrl           string
	conditionParams       shoutout.RequiredSubscriptionConditionParams
	requiredSubscriptions shoutout.RequiredSubscriptions

	newTwitchClient     NewTwitchClientFunc
	twitchWebhookSecret string
}

// NewServer prepares a subscription server for our channel; origin is the public base
// URL at which Twitch reaches our webhook
func NewServer(origin, twitchChannelUserId, twitchClientId, twitchClientSecret, twitchWebhookSecret string) *Server {
	return &Server{
		callbackUrl: origin + "/",
		conditionParams: shoutout.RequiredSubscriptionConditionParams{
			ChannelUserId: twitchChannelUserId,
		},
		requiredSubscriptions: shoutout.Subscriptions,
		newTwitchClient: func(ctx context.Context) (TwitchClient, error) {
			return twitch.NewClientWithAppToken(ctx, twitchClientId, twitchClientSecret)
		},
		twitchWebhookSecret: twitchWebhookSecret,
	}
}

func (s *Server) RegisterRoutes(c auth.Client, r *mux.Router) {
	subscriptions := r.Path("/subscriptions").Subrouter()
	subscriptions.Use(func(next http.Handler) http.Handler {
		return auth.RequireAccess(c, auth.RoleBroadcaster, next)
	})
	subscriptions.Methods("GET").HandlerFunc(s.handleGetSubscriptions)
	subscriptions.Methods("PATCH").HandlerFunc(s.handlePatchSubscriptions)
	subscriptions.Methods("DELETE").HandlerFunc(s.handleDeleteSubscriptions)
}

// handleGetSubscriptions (GET /subscriptions) reports the status of every subscription
// we require or that calls back to us
func (s *Server) handleGetSubscriptions(res http.ResponseWriter, req *http.Request) {
	_, status, ok := s.prepare(res, req)
	if !ok {
		return
	}
	if err := json.NewEncoder(res).Encode(status); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

// handlePatchSubscriptions (PATCH /subscriptions) creates every required subscription
// that isn't registered yet
func (s *Server) handlePatchSubscriptions(res http.ResponseWriter, req *http.Request) {
	c, status, ok := s.prepare(res, req)
	if !ok {
		return
	}
	logger := entry.Log(req)
	for _, state := range status.Subscriptions {
		if !state.Required || state.Status != statusMissing {
			continue
		}
		logger := withState(logger, &state)
		if err := s.create(c, &state); err != nil {
			logger.Error("Failed to create EventSub subscription", "error", err)
			http.Error(res, fmt.Sprintf("Failed to create EventSub subscription: %v", err), http.StatusInternalServerError)
			return
		}
		logger.Info("Created EventSub subscription")
	}
	res.WriteHeader(http.StatusNoContent)
}

// handleDeleteSubscriptions (DELETE /subscriptions) removes every subscription that
// calls back to us, required or not
func (s *Server) handleDeleteSubscriptions(res http.ResponseWriter, req *http.Request) {
	c, status, ok := s.prepare(res, req)
	if !ok {
		return
	}
	logger := entry.Log(req)
	for _, state := range status.Subscriptions {
		if state.subscriptionId == "" {
			continue
		}
		logger := withState(logger, &state).With("subscriptionId", state.subscriptionId)
		if err := s.remove(c, state.subscriptionId); err != nil {
			logger.Error("Failed to delete EventSub subscription", "error", err)
			http.Error(res, fmt.Sprintf("Failed to delete EventSub subscription: %v", err), http.StatusInternalServerError)
			return
		}
		logger.Info("Deleted EventSub subscription")
	}
	res.WriteHeader(http.StatusNoContent)
}

// prepare initializes a Twitch API client and resolves current subscription status,
// responding with a 500 and returning false if either fails
func (s *Server) prepare(res http.ResponseWriter, req *http.Request) (TwitchClient, *Status, bool) {
	logger := entry.Log(req)
	c, err := s.newTwitchClient(req.Context())
	if err != nil {
		logger.Error("Failed to initialize Twitch API client", "error", err)
		http.Error(res, fmt.Sprintf("failed to initialize Twitch API client: %v", err), http.StatusInternalServerError)
		return nil, nil, false
	}
	registered, err := listOwnedSubscriptions(c, s.conditionParams.ChannelUserId, s.callbackUrl)
	if err != nil {
		logger.Error("Failed to get EventSub subscriptions", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return nil, nil, false
	}
	status, err := reconcile(registered, s.conditionParams, s.requiredSubscriptions)
	if err != nil {
		logger.Error("Failed to reconcile EventSub subscription status", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return nil, nil, false
	}
	return c, status, true
}

func (s *Server) create(c TwitchClient, state *State) error {
	cond, err := conditionFromMap(state.Condition)
	if err != nil {
		return err
	}
	r, err := c.CreateEventSubSubscription(&helix.EventSubSubscription{
		Type:      state.Type,
		Version:   state.Version,
		Condition: cond,
		Transport: helix.EventSubTransport{
			Method:   "webhook",
			Callback: s.callbackUrl,
			Secret:   s.twitchWebhookSecret,
		},
	})
	if err != nil {
		return err
	}
	if r.StatusCode != http.StatusAccepted {
		return fmt.Errorf("got response %d from create subscription request: %s", r.StatusCode, r.ErrorMessage)
	}
	return nil
}

func (s *Server) remove(c TwitchClient, subscriptionId string) error {
	r, err := c.RemoveEventSubSubscription(subscriptionId)
	if err != nil {
		return err
	}
	if r.StatusCode != http.StatusNoContent {
		return fmt.Errorf("got response %d from delete subscription request: %s", r.StatusCode, r.ErrorMessage)
	}
	return nil
}

func withState(logger *slog.Logger, state *State) *slog.Logger {
	return logger.With(
		"subscriptionType", state.Type,
		"subscriptionVersion", state.Version,
		"subscriptionCondition", state.Condition,
	)
}
