// Package events publishes coverage domain events to a message broker.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeRequestCreated = "coverage.request.created"
	TypeRequestFilled  = "coverage.request.filled"
)

// Envelope wraps every published event.
type Envelope struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	TenantID   int64       `json:"tenant_id"`
	Data       interface{} `json:"data"`
}

// Publisher sends envelopes to the broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Envelope) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
