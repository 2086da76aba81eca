package eventry

import (
	"github.com/google/uuid"
)

// Root is the interface an entity implements to be managed by an
// AggregateStore: replay history into state, record new changes, and
// report what has not yet been persisted. Based on the classic
// event-sourced aggregate shape (see e.g.
// https://github.com/gregoryyoung/m-r/blob/master/SimpleCQRS/Domain.cs),
// generalized here to any Go type embedding Base.
type Root interface {
	// AggregateUUID identifies the entity; it maps to the stream named
	// AggregateUUID().String().
	AggregateUUID() uuid.UUID

	// Version reports the number of events replayed from history minus
	// one (NoEventVersion for a brand-new entity), including any pending
	// uncommitted changes.
	Version() StreamVersion

	// UncommittedChanges returns the events recorded since the last
	// MarkChangesAsCommitted, in the order they were recorded.
	UncommittedChanges() []Event

	// MarkChangesAsCommitted clears the uncommitted-changes buffer after
	// a successful append.
	MarkChangesAsCommitted()

	// LoadFromHistory folds a stream of previously committed events into
	// the entity's state, without adding them to UncommittedChanges.
	LoadFromHistory(events []Event)
}

// SubjectAggregateUUID recovers the aggregate identity an event belongs
// to from its Subject attribute. Returns ErrMissingSubject if Subject is
// empty.
func SubjectAggregateUUID(e Event) (uuid.UUID, error) {
	if e.Subject == "" {
		return uuid.UUID{}, ErrMissingSubject
	}
	return uuid.Parse(e.Subject)
}
