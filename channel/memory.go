package channel

import (
	"context"
	"sync"

	"github.com/kpaxton/eventry"
)

// InMemory retains every published event for inspection; intended for
// tests. Grounded on venty's in_memory_event_channel.py.
type InMemory struct {
	mu        sync.Mutex
	published []eventry.Event
}

func (c *InMemory) Publish(_ context.Context, events []eventry.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, events...)
	return nil
}

// Published returns a snapshot of every event published so far, safe from
// mutation by the caller (it does not alias the channel's internal slice).
func (c *InMemory) Published() []eventry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]eventry.Event, len(c.published))
	copy(out, c.published)
	return out
}

var _ Channel = (*InMemory)(nil)
