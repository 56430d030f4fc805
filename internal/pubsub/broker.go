package pubsub

import (
	"context"
	"errors"
	"sync"
	"time"
)

const defaultBufferSize = 64

var (
	// ErrClosed is returned by Send when the broker has been closed.
	ErrClosed = errors.New("pubsub: broker closed")

	// ErrNoSubscribers is returned by Send when no subscriber took the event.
	ErrNoSubscribers = errors.New("pubsub: no subscriber received the event")
)

// Broker is a generic pub/sub event broker.
// It fans every published event out to all current subscribers.
type Broker[T any] struct {
	// subs maps each subscriber channel to its context's Done channel.
	subs       map[chan Event[T]]<-chan struct{}
	mu         sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once
	bufferSize int
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom per-subscriber buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]<-chan struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe creates a new subscription channel.
// The channel is closed when ctx is cancelled or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = ctx.Done()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.subs == nil {
			return
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to all subscribers.
// Non-blocking: drops the event for any subscriber whose buffer is full.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed() {
		return
	}

	event := newEvent(eventType, payload)
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Send delivers an event to every subscriber, waiting for buffer space
// instead of dropping. Used by sources whose events must not be lost,
// such as deep links. Subscribers whose context has ended are skipped;
// if that leaves nobody, Send returns ErrNoSubscribers. Returns ctx.Err()
// if ctx ends first.
func (b *Broker[T]) Send(ctx context.Context, eventType EventType, payload T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed() {
		return ErrClosed
	}

	event := newEvent(eventType, payload)
	received := 0
	for sub, gone := range b.subs {
		select {
		case sub <- event:
			received++
		case <-gone:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return ErrClosed
		}
	}
	if received == 0 {
		return ErrNoSubscribers
	}
	return nil
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	// done is closed before taking the lock so a blocked Send can let go.
	b.closeOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		return
	}
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func newEvent[T any](eventType EventType, payload T) Event[T] {
	return Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
