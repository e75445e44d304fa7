// Package fanout republishes verified EventSub notifications to an AMQP exchange, so
// that other services can observe channel events without registering webhooks of
// their own
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/golden-vcr/server-common/rmq"
)

// Publisher records a single notification
type Publisher interface {
	Publish(ctx context.Context, messageId, subscriptionType string, event json.RawMessage) error
}

// Message is the JSON body written to the exchange for each notification. The
// exchange is a fanout exchange, so consumers filter on SubscriptionType themselves.
type Message struct {
	MessageId        string          `json:"message_id"`
	SubscriptionType string          `json:"subscription_type"`
	Timestamp        time.Time       `json:"timestamp"`
	Event            json.RawMessage `json:"event"`
}

type Producer struct {
	p   rmq.Producer
	now func() time.Time
}

// NewProducer declares a durable fanout exchange with the given name and returns a
// Publisher that writes to it
func NewProducer(conn *amqp.Connection, exchange string) (*Producer, error) {
	p, err := rmq.NewProducer(conn, exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize producer for exchange '%s': %w", exchange, err)
	}
	return &Producer{p: p, now: time.Now}, nil
}

func (p *Producer) Publish(ctx context.Context, messageId, subscriptionType string, event json.RawMessage) error {
	data, err := json.Marshal(Message{
		MessageId:        messageId,
		SubscriptionType: subscriptionType,
		Timestamp:        p.now().UTC(),
		Event:            event,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize %s notification: %w", subscriptionType, err)
	}
	return p.p.Send(ctx, data)
}

// Discard is a Publisher that drops every notification
type Discard struct{}

func (Discard) Publish(ctx context.Context, messageId, subscriptionType string, event json.RawMessage) error {
	return nil
}
