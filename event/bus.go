// Package event provides a store-backed publish/subscribe bus. The engine
// publishes will submissions on it and the disbursement listener can
// consume funds-disbursed events from it in place of a message broker.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/venu630/bequest/id"
)

// Bus provides high-level publish/subscribe operations over an event Store.
type Bus struct {
	store  Store
	source string
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithSource stamps every published event with source.
func WithSource(source string) BusOption {
	return func(b *Bus) { b.source = source }
}

// NewBus creates an event bus backed by the given store.
func NewBus(store Store, opts ...BusOption) *Bus {
	b := &Bus{store: store}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish creates and persists a new event, making it available for subscribers.
func (b *Bus) Publish(ctx context.Context, name string, payload []byte) (*Event, error) {
	evt := &Event{
		ID:        id.NewEventID(),
		Name:      name,
		Payload:   payload,
		Source:    b.source,
		CreatedAt: time.Now().UTC(),
	}
	if err := b.store.PublishEvent(ctx, evt); err != nil {
		return nil, err
	}
	return evt, nil
}

// PublishJSON marshals v and publishes it under name.
func (b *Bus) PublishJSON(ctx context.Context, name string, v any) (*Event, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return b.Publish(ctx, name, payload)
}

// Subscribe waits for an unacked event matching the given name.
// Blocks until available or timeout. Returns nil on timeout.
func (b *Bus) Subscribe(ctx context.Context, name string, timeout time.Duration) (*Event, error) {
	return b.store.SubscribeEvent(ctx, name, timeout)
}

// Ack acknowledges an event, marking it as consumed.
func (b *Bus) Ack(ctx context.Context, eventID id.EventID) error {
	return b.store.AckEvent(ctx, eventID)
}

// Store returns the underlying event store.
func (b *Bus) Store() Store { return b.store }
