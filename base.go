package eventry

import "github.com/google/uuid"

// Base is an embeddable helper that implements the bookkeeping half of
// Root: identity, version, and the uncommitted-changes buffer. Domain
// types embed Base and supply a When func via Init to get Root's
// replay/record semantics for free.
//
// Semantics:
//   - When(e): mutate state via the registered handler, bump version.
//     Does NOT enqueue; used for replay.
//   - Raise(e): When(e) + enqueue to pending (for newly produced events).
//   - Version(): current version INCLUDING pending.
//   - Flush(): returns pending and clears it.
type Base struct {
	id      uuid.UUID
	version StreamVersion
	pending []Event
	when    func(Event)
}

// Init sets the aggregate identity and the state-mutation function.
func (b *Base) Init(id uuid.UUID, when func(Event)) {
	b.id = id
	b.version = NoEventVersion
	b.when = when
}

// AggregateUUID returns the identity set by Init.
func (b *Base) AggregateUUID() uuid.UUID { return b.id }

// SetVersion forces the current version (used when restoring from a
// snapshot); no pending events are affected.
func (b *Base) SetVersion(v StreamVersion) { b.version = v }

// When mutates state by a single event and advances the version by one.
// Used for event replay (rehydration).
func (b *Base) When(e Event) {
	if b.when != nil {
		b.when(e)
	}
	b.version++
}

// Raise records a new domain event: When(e), then enqueues it so it is
// returned by the next UncommittedChanges/Flush.
func (b *Base) Raise(e Event) {
	b.When(e)
	b.pending = append(b.pending, e)
}

// UncommittedChanges returns the events recorded since the last Flush or
// MarkChangesAsCommitted, without clearing them.
func (b *Base) UncommittedChanges() []Event {
	return b.pending
}

// MarkChangesAsCommitted clears the pending buffer.
func (b *Base) MarkChangesAsCommitted() {
	b.pending = nil
}

// Flush returns all uncommitted events and clears the pending buffer,
// along with the expectedVersion (the version the entity had before
// those events were recorded) an AggregateStore needs for the append.
func (b *Base) Flush() (events []Event, expectedVersion StreamVersion) {
	events = b.pending
	expectedVersion = b.version - StreamVersion(len(events))
	b.pending = nil
	return
}

// Version returns the current aggregate version, including pending
// uncommitted events.
func (b *Base) Version() StreamVersion { return b.version }

// LoadFromHistory folds events into state via When, without enqueueing
// them as uncommitted changes.
func (b *Base) LoadFromHistory(events []Event) {
	for _, e := range events {
		b.When(e)
	}
}
