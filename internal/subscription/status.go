package subscription

import (
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"

	"github.com/golden-vcr/shoutout"
)

// SubscriptionLister is satisfied by *helix.Client
type SubscriptionLister interface {
	GetEventSubSubscriptions(params *helix.EventSubSubscriptionsParams) (*helix.EventSubSubscriptionsResponse, error)
}

// TwitchClient adds the create and remove calls needed by PATCH and DELETE
type TwitchClient interface {
	SubscriptionLister
	CreateEventSubSubscription(payload *helix.EventSubSubscription) (*helix.EventSubSubscriptionsResponse, error)
	RemoveEventSubSubscription(id string) (*helix.RemoveEventSubSubscriptionParamsResponse, error)
}

// listOwnedSubscriptions pages through the EventSub subscriptions that involve the
// given user ID, keeping only the webhook subscriptions that call back to us
func listOwnedSubscriptions(c SubscriptionLister, channelUserId, callbackUrl string) ([]helix.EventSubSubscription, error) {
	owned := make([]helix.EventSubSubscription, 0)
	params := &helix.EventSubSubscriptionsParams{UserID: channelUserId}
	for {
		r, err := c.GetEventSubSubscriptions(params)
		if err != nil {
			return nil, err
		}
		if r.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("got response %d from get subscriptions request: %s", r.StatusCode, r.ErrorMessage)
		}
		for _, sub := range r.Data.EventSubSubscriptions {
			if sub.Transport.Method == "webhook" && sub.Transport.Callback == callbackUrl {
				owned = append(owned, sub)
			}
		}
		if r.Data.Pagination.Cursor == "" {
			return owned, nil
		}
		params.After = r.Data.Pagination.Cursor
	}
}

// reconcile matches each required subscription against the registered ones. Required
// subscriptions come first, in order, with a status of "missing" if not registered;
// any leftover registered subscriptions follow as non-required. The overall status is
// ok only if every required subscription is enabled.
func reconcile(registered []helix.EventSubSubscription, params shoutout.RequiredSubscriptionConditionParams, required shoutout.RequiredSubscriptions) (*Status, error) {
	claimed := make([]bool, len(registered))
	states := make([]State, 0, len(required)+len(registered))
	ok := true

	for _, req := range required {
		cond, err := params.Format(&req.TemplatedCondition)
		if err != nil {
			return nil, fmt.Errorf("failed to format condition for %s: %w", req.Type, err)
		}
		state := State{
			Required:  true,
			Type:      req.Type,
			Version:   req.Version,
			Condition: conditionToMap(cond),
			Status:    statusMissing,
		}
		for i, sub := range registered {
			if claimed[i] || sub.Type != req.Type || sub.Version != req.Version || sub.Condition != *cond {
				continue
			}
			claimed[i] = true
			state.Status = sub.Status
			state.subscriptionId = sub.ID
			break
		}
		if state.Status != helix.EventSubStatusEnabled {
			ok = false
		}
		states = append(states, state)
	}

	for i, sub := range registered {
		if claimed[i] {
			continue
		}
		states = append(states, State{
			Type:           sub.Type,
			Version:        sub.Version,
			Condition:      conditionToMap(&sub.Condition),
			Status:         sub.Status,
			subscriptionId: sub.ID,
		})
	}
	return &Status{Ok: ok, Subscriptions: states}, nil
}
