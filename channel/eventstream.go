package channel

import (
	"context"

	"github.com/kpaxton/eventry"
)

// EventStream wraps an EventStore and appends published events to a
// named stream with ExpectAny, turning any event-sourced stream into a
// publication target. Grounded on venty's event_stream_channel.py.
type EventStream struct {
	Store  eventry.EventStore
	Stream eventry.StreamName
}

func (c EventStream) Publish(ctx context.Context, events []eventry.Event) error {
	_, err := eventry.Append(ctx, c.Store, c.Stream, eventry.ExpectAny(), eventry.Events(events...))
	return err
}

var _ Channel = EventStream{}
