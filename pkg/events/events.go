// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderPaid          Type = "order.paid"
	OrderStatusChanged Type = "order.status_changed"
)

type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func New(eventType Type, key string, payload any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
