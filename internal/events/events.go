// Package events defines the domain events this service emits and the
// publisher boundary they leave through.
package events

import (
	"context"
	"time"
)

// Event types emitted by the service.
const (
	TypeGenerationCompleted = "generation.completed"
	TypeGenerationFailed    = "generation.failed"
	TypeCreditsPurchased    = "credits.purchased"
)

// Event is one domain occurrence worth telling other systems about.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Detail     any       `json:"detail,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, userID string, detail any) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Detail:     detail,
	}
}

// Publisher is the outbound event boundary.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when event publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
