package eventry_test

import (
	"context"
	"iter"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kpaxton/eventry"
)

// fakeStore is a minimal single-stream EventStore fake, just enough to
// exercise AggregateStore without pulling in a sibling store module.
type fakeStore struct {
	events []eventry.Event
}

func newMemStore() *fakeStore { return &fakeStore{} }

func (s *fakeStore) AttemptAppend(_ context.Context, _ eventry.StreamName, expected eventry.ExpectedVersion, events iter.Seq[eventry.Event], _ ...eventry.AppendOption) (eventry.CommitPosition, bool, error) {
	actualFn := func() eventry.StreamActual {
		return eventry.StreamActual{Exists: len(s.events) > 0, Version: eventry.StreamVersion(len(s.events) - 1)}
	}
	if !eventry.IsVersionCorrect(expected, actualFn) {
		return 0, false, nil
	}
	for e := range events {
		s.events = append(s.events, e)
	}
	return eventry.CommitPosition(len(s.events)), true, nil
}

func (s *fakeStore) ReadStreams(_ context.Context, _ map[eventry.StreamName]eventry.ReadInstruction, _ ...eventry.ReadOption) iter.Seq2[eventry.RecordedEvent, error] {
	return func(yield func(eventry.RecordedEvent, error) bool) {
		for i, e := range s.events {
			rec := eventry.NewRecordedEvent(e, "s", eventry.StreamVersion(i), eventry.CommitPosition(i+1), nil)
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (s *fakeStore) CommitPosition(context.Context) (eventry.CommitPosition, error) {
	if len(s.events) == 0 {
		return eventry.NoCommitPosition, nil
	}
	return eventry.CommitPosition(len(s.events)), nil
}

func (s *fakeStore) CurrentVersion(context.Context, eventry.StreamName) (eventry.StreamActual, error) {
	return eventry.StreamActual{Exists: len(s.events) > 0, Version: eventry.StreamVersion(len(s.events) - 1)}, nil
}

func (s *fakeStore) SaveSnapshot(context.Context, eventry.StreamName, eventry.StreamVersion, any) error {
	return nil
}

func (s *fakeStore) LoadSnapshot(context.Context, eventry.StreamName) (eventry.Snapshot, error) {
	return eventry.Snapshot{}, nil
}

var _ eventry.EventStore = (*fakeStore)(nil)

type counterOpened struct{ Initial int }
type counterIncremented struct{ By int }

type counter struct {
	eventry.Base
	value int
}

func newCounter(id uuid.UUID) *counter {
	c := &counter{}
	c.Init(id, c.when)
	return c
}

func (c *counter) when(e eventry.Event) {
	switch data := e.Data.(type) {
	case counterOpened:
		c.value = data.Initial
	case counterIncremented:
		c.value += data.By
	}
}

func (c *counter) Open(initial int) {
	c.Raise(eventry.NewEvent(uuid.NewString(), "eventry_test", "Opened", counterOpened{Initial: initial}))
}

func (c *counter) Increment(by int) {
	c.Raise(eventry.NewEvent(uuid.NewString(), "eventry_test", "Incremented", counterIncremented{By: by}))
}

var _ eventry.Root = (*counter)(nil)

func TestAggregateStore_StoreAndLoadRoundTrip(t *testing.T) {
	ctx := t.Context()
	store := newMemStore()
	aggStore := eventry.NewAggregateStore(store)

	id := uuid.New()
	c := newCounter(id)
	c.Open(10)
	c.Increment(5)

	require.NoError(t, aggStore.Store(ctx, c))
	require.Empty(t, c.UncommittedChanges())

	loaded, err := aggStore.Load(ctx, func() eventry.Root { return newCounter(id) }, eventry.StreamName(id.String()))
	require.NoError(t, err)

	reloaded := loaded.(*counter)
	require.Equal(t, 15, reloaded.value)
	require.EqualValues(t, 1, reloaded.Version())
}

// gappyStore reports StreamPositions with a gap, simulating a store that
// lost an event between the aggregate's last-known version and what it
// actually replayed.
type gappyStore struct {
	fakeStore
}

func (s *gappyStore) ReadStreams(_ context.Context, _ map[eventry.StreamName]eventry.ReadInstruction, _ ...eventry.ReadOption) iter.Seq2[eventry.RecordedEvent, error] {
	return func(yield func(eventry.RecordedEvent, error) bool) {
		for i, e := range s.events {
			rec := eventry.NewRecordedEvent(e, "s", eventry.StreamVersion(i*2), eventry.CommitPosition(i+1), nil)
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func TestAggregateStore_LoadDetectsVersionMismatchAfterReplay(t *testing.T) {
	ctx := t.Context()
	store := &gappyStore{}
	aggStore := eventry.NewAggregateStore(store)

	id := uuid.New()
	c := newCounter(id)
	c.Open(10)
	c.Increment(5)
	require.NoError(t, aggStore.Store(ctx, c))

	_, err := aggStore.Load(ctx, func() eventry.Root { return newCounter(id) }, eventry.StreamName(id.String()))
	require.ErrorContains(t, err, "version mismatch")
}

func TestAggregateStore_StoreIsNoOpWithoutChanges(t *testing.T) {
	ctx := t.Context()
	store := newMemStore()
	aggStore := eventry.NewAggregateStore(store)

	c := newCounter(uuid.New())
	require.NoError(t, aggStore.Store(ctx, c))

	pos, err := store.CommitPosition(ctx)
	require.NoError(t, err)
	require.Equal(t, eventry.NoCommitPosition, pos)
}
