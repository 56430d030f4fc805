// Package pubsub provides a generic publish/subscribe event system used for
// router notifications and deep-link event sources.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// ChangedEvent carries a router change notification.
	ChangedEvent EventType = "changed"
	// LinkEvent carries an externally sourced deep link.
	LinkEvent EventType = "link"
	// LifecycleEvent carries a router open/close notification.
	LifecycleEvent EventType = "lifecycle"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
