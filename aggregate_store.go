package eventry

import (
	"context"
	"fmt"
	"math"
)

// AggregateStore materializes Root entities by replaying their stream and
// appends their uncommitted changes under the version they were built on.
// It maps an entity to the stream named AggregateUUID().String(), per the
// spec's §4.5.
type AggregateStore struct {
	store EventStore
}

// NewAggregateStore builds an AggregateStore over the given EventStore.
func NewAggregateStore(store EventStore) *AggregateStore {
	return &AggregateStore{store: store}
}

func streamFor(root Root) StreamName {
	return StreamName(root.AggregateUUID().String())
}

// Store appends root's uncommitted changes under its current version. A
// root with no uncommitted changes is a no-op. On success, root's
// uncommitted-changes buffer is cleared.
//
// The optimistic-concurrency check is not retried here: if another writer
// advanced the stream since root was loaded, the caller gets back
// ErrVersionConflict and must reload and retry at the domain level.
func (s *AggregateStore) Store(ctx context.Context, root Root) error {
	changes := root.UncommittedChanges()
	if len(changes) == 0 {
		return nil
	}

	expected := ExpectVersion(root.Version() - StreamVersion(len(changes)))

	if _, err := Append(ctx, s.store, streamFor(root), expected, Events(changes...)); err != nil {
		return err
	}

	root.MarkChangesAsCommitted()
	return nil
}

// Load constructs a fresh entity with newEntity, tries its cached
// snapshot, and replays the remaining history through LoadFromHistory.
func (s *AggregateStore) Load(ctx context.Context, newEntity func() Root, stream StreamName) (Root, error) {
	root := newEntity()

	snap, err := s.store.LoadSnapshot(ctx, stream)
	if err != nil {
		return nil, fmt.Errorf("eventry: aggregate store: could not load snapshot: %w", err)
	}

	fromPosition := StreamVersion(0)
	if snap.Found {
		if restorer, ok := root.(SnapshotRestorer); ok {
			if err := restorer.RestoreSnapshot(snap); err != nil {
				return nil, fmt.Errorf("eventry: aggregate store: could not restore snapshot: %w", err)
			}
			fromPosition = snap.Version + 1
		}
	}

	lastPosition := fromPosition - 1
	var events []Event
	for rec, err := range ReadStream(ctx, s.store, stream, ReadFrom(fromPosition, math.MaxInt)) {
		if err != nil {
			return nil, fmt.Errorf("eventry: aggregate store: could not read stream: %w", err)
		}
		events = append(events, rec.Event())
		lastPosition = rec.StreamPosition()
	}

	root.LoadFromHistory(events)

	if root.Version() != lastPosition {
		return nil, fmt.Errorf("eventry: aggregate store: version mismatch after replay: aggregate=%d, store=%d", root.Version(), lastPosition)
	}

	return root, nil
}

// SnapshotRestorer is implemented by Root types that can seed their state
// from a cached Snapshot instead of replaying from the beginning. It is
// optional: entities that don't implement it simply replay the full
// stream on every load.
type SnapshotRestorer interface {
	RestoreSnapshot(Snapshot) error
}
