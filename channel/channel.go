// Package channel provides the publication surface described in spec.md
// §6: a minimal sink abstraction plus the concrete sinks the library
// ships, ported from venty's event_channel.py family.
package channel

import (
	"context"

	"github.com/kpaxton/eventry"
)

// A Channel is a mechanism for organizing and transmitting events. Callers
// can model it as a topic, queue, routing key, path, or subject depending
// on the protocol used (the AsyncAPI channel concept:
// https://www.asyncapi.com/docs/concepts/channel).
type Channel interface {
	Publish(ctx context.Context, events []eventry.Event) error
}

// PublishEvents forwards events to ch, syntax sugar matching PublishEvent.
func PublishEvents(ctx context.Context, ch Channel, events []eventry.Event) error {
	return ch.Publish(ctx, events)
}

// PublishEvent forwards a single event to ch.
func PublishEvent(ctx context.Context, ch Channel, event eventry.Event) error {
	return ch.Publish(ctx, []eventry.Event{event})
}

// bestEffort swallows publish errors from the wrapped Channel, invoking
// onError (if non-nil) instead of propagating them.
type bestEffort struct {
	ch      Channel
	onError func(error)
}

// BestEffort wraps ch so that Publish never returns an error: failures are
// reported to onError (which may be nil to discard them silently).
func BestEffort(ch Channel, onError func(error)) Channel {
	return &bestEffort{ch: ch, onError: onError}
}

func (b *bestEffort) Publish(ctx context.Context, events []eventry.Event) error {
	if err := b.ch.Publish(ctx, events); err != nil && b.onError != nil {
		b.onError(err)
	}
	return nil
}
