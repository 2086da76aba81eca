package channel

import (
	"context"

	"github.com/kpaxton/eventry"
)

// Aggregate feeds published events straight into a held eventry.Root via
// LoadFromHistory, without going through the EventStore. It exists to
// project recorded events into a second, in-process entity (common in
// tests that assert on derived read-models). Grounded on venty's
// aggregate_channel.py.
type Aggregate struct {
	Root eventry.Root
}

func (c Aggregate) Publish(_ context.Context, events []eventry.Event) error {
	c.Root.LoadFromHistory(events)
	return nil
}

var _ Channel = Aggregate{}
