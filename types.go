package shoutout

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/nicklaw5/helix/v2"
)

// RequiredSubscription describes an EventSub subscription that our app needs, with a
// condition whose values may reference RequiredSubscriptionConditionParams fields
type RequiredSubscription struct {
	Type               string
	Version            string
	TemplatedCondition helix.EventSubCondition
}

type RequiredSubscriptions []RequiredSubscription

// RequiredSubscriptionConditionParams carries the values that are substituted into a
// templated condition in order to produce a concrete one
type RequiredSubscriptionConditionParams struct {
	ChannelUserId string
}

// Format renders each field of the given templated condition, returning a new
// condition with all template references resolved
func (p *RequiredSubscriptionConditionParams) Format(cond *helix.EventSubCondition) (*helix.EventSubCondition, error) {
	result := *cond
	fields := []*string{
		&result.BroadcasterUserID,
		&result.FromBroadcasterUserID,
		&result.ModeratorUserID,
		&result.ToBroadcasterUserID,
		&result.RewardID,
		&result.ClientID,
		&result.ExtensionClientID,
		&result.UserID,
	}
	for _, field := range fields {
		if *field == "" {
			continue
		}
		formatted, err := p.render(*field)
		if err != nil {
			return nil, err
		}
		*field = formatted
	}
	return &result, nil
}

func (p *RequiredSubscriptionConditionParams) render(text string) (string, error) {
	tmpl, err := template.New("condition").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid condition template %q: %w", text, err)
	}
	var b bytes.Buffer
	if err := tmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("failed to render condition template %q: %w", text, err)
	}
	return b.String(), nil
}
