// Package storetest is a shared compliance suite run against every
// eventry.EventStore implementation (mem, sql) so they stay
// observationally equivalent. Generalized from the teacher's package
// of the same name, retrofitted to assert with testify/require.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kpaxton/eventry"
)

// Opened and Added are the suite's fixture event payloads; kept
// domain-agnostic so this package doesn't depend on any example
// aggregate.
type Opened struct{ ID string }

type Added struct{ N int }

// Factory creates a new, isolated EventStore instance for a subtest.
type Factory func(t *testing.T) eventry.EventStore

// Registry is the codec registry fixture stores decode Opened/Added
// payloads with.
func Registry() eventry.Registry {
	return eventry.Registry{
		"Opened": eventry.JSONCodec[Opened](),
		"Added":  eventry.JSONCodec[Added](),
	}
}

func opened(id string) eventry.Event {
	return eventry.NewEvent("evt-"+id, "storetest", "Opened", Opened{ID: id})
}

func added(id string, n int) eventry.Event {
	return eventry.NewEvent("evt-"+id, "storetest", "Added", Added{N: n})
}

func collect(t *testing.T, store eventry.EventStore, stream eventry.StreamName, instr eventry.ReadInstruction, opts ...eventry.ReadOption) []eventry.RecordedEvent {
	t.Helper()
	var out []eventry.RecordedEvent
	for rec, err := range eventry.ReadStream(t.Context(), store, stream, instr, opts...) {
		require.NoError(t, err, "read stream %q", stream)
		out = append(out, rec)
	}
	return out
}

// Run executes the full compliance suite against a fresh store built by
// newStore for each subtest. Subtests run in parallel, so implementations
// must be safe for concurrent use.
func Run(t *testing.T, newStore Factory) {
	t.Run("empty store", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		pos, err := s.CommitPosition(ctx)
		require.NoError(t, err)
		require.Equal(t, eventry.NoCommitPosition, pos)

		actual, err := s.CurrentVersion(ctx, "s")
		require.NoError(t, err)
		require.False(t, actual.Exists, "expected stream not to exist, got %+v", actual)
	})

	t.Run("append assigns dense stream positions", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		stream := eventry.StreamName("s")

		pos, err := eventry.Append(ctx, s, stream, eventry.ExpectNoStream(), eventry.Events(
			opened("0"), added("1", 1), added("2", 2), added("3", 3), added("4", 4),
		))
		require.NoError(t, err)
		require.EqualValues(t, 4, pos, "expected highest commit position 4")

		recorded := collect(t, s, stream, eventry.ReadAll())
		require.Len(t, recorded, 5)
		for i, rec := range recorded {
			require.EqualValues(t, i, rec.StreamPosition(), "event %d", i)
			require.Equal(t, stream, rec.StreamName(), "event %d", i)
		}
		require.Equal(t, Opened{ID: "0"}, recorded[0].Event().Data, "payload must round-trip through the store's codec")
		require.Equal(t, "evt-0", recorded[0].Event().ID)
		for i := 1; i < 5; i++ {
			require.Equal(t, Added{N: i}, recorded[i].Event().Data, "payload must round-trip through the store's codec, event %d", i)
		}

		actual, err := s.CurrentVersion(ctx, stream)
		require.NoError(t, err)
		require.True(t, actual.Exists)
		require.EqualValues(t, 4, actual.Version)
	})

	t.Run("interleaved appends across streams", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		mine := eventry.StreamName("my-stream")
		yours := eventry.StreamName("your-stream")

		_, err := eventry.Append(ctx, s, mine, eventry.ExpectNoStream(), eventry.Events(
			opened("0"), added("1", 1), added("2", 2), added("3", 3), added("4", 4),
		))
		require.NoError(t, err, "append to %q", mine)

		_, err = eventry.Append(ctx, s, yours, eventry.ExpectNoStream(), eventry.Events(
			opened("5"), added("6", 6), added("7", 7), added("8", 8), added("9", 9),
		))
		require.NoError(t, err, "append to %q", yours)

		_, err = eventry.Append(ctx, s, mine, eventry.ExpectVersion(4), eventry.Events(
			added("10", 10), added("11", 11), added("12", 12), added("13", 13), added("14", 14),
		))
		require.NoError(t, err, "second append to %q", mine)

		mineRecorded := collect(t, s, mine, eventry.ReadAll())
		require.Len(t, mineRecorded, 10)
		for i, rec := range mineRecorded {
			require.EqualValues(t, i, rec.StreamPosition(), "%s[%d]", mine, i)
		}

		yoursRecorded := collect(t, s, yours, eventry.ReadAll())
		require.Len(t, yoursRecorded, 5)

		seen := map[eventry.CommitPosition]bool{}
		for _, rec := range append(append([]eventry.RecordedEvent{}, mineRecorded...), yoursRecorded...) {
			require.False(t, seen[rec.CommitPosition()], "duplicate commit position %v", rec.CommitPosition())
			seen[rec.CommitPosition()] = true
		}
	})

	t.Run("backwards read reverses order", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		stream := eventry.StreamName("s")

		_, err := eventry.Append(ctx, s, stream, eventry.ExpectNoStream(), eventry.Events(
			opened("0"), added("1", 1), added("2", 2),
		))
		require.NoError(t, err)

		forward := collect(t, s, stream, eventry.ReadAll())
		backward := collect(t, s, stream, eventry.ReadAll(), eventry.Backwards())

		require.Len(t, backward, len(forward))
		for i := range forward {
			require.Equal(t, forward[i].StreamPosition(), backward[len(backward)-1-i].StreamPosition(), "index %d", i)
		}
	})

	t.Run("version conflict leaves store unchanged", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		stream := eventry.StreamName("s")

		_, err := eventry.Append(ctx, s, stream, eventry.ExpectNoStream(), eventry.Events(
			opened("0"), added("1", 1), added("2", 2), added("3", 3), added("4", 4),
		))
		require.NoError(t, err)

		_, err = eventry.Append(ctx, s, stream, eventry.ExpectNoStream(), eventry.Events(added("99", 99)))
		var vc *eventry.VersionConflictError
		require.ErrorAs(t, err, &vc)

		recorded := collect(t, s, stream, eventry.ReadAll())
		require.Len(t, recorded, 5, "store must be unchanged after a rejected append")
	})

	t.Run("empty append is a no-op version check", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		stream := eventry.StreamName("s")

		before, err := s.CommitPosition(ctx)
		require.NoError(t, err)

		pos, ok, err := s.AttemptAppend(ctx, stream, eventry.ExpectNoStream(), eventry.Events())
		require.NoError(t, err)
		require.True(t, ok, "expected empty append against NO_STREAM to succeed as a no-op")
		require.Equal(t, before, pos)

		actual, err := s.CurrentVersion(ctx, stream)
		require.NoError(t, err)
		require.False(t, actual.Exists, "expected empty append to create no stream, got %+v", actual)
	})

	t.Run("snapshot save and load round-trip", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		stream := eventry.StreamName("s")

		snap, err := s.LoadSnapshot(ctx, stream)
		require.NoError(t, err)
		require.False(t, snap.Found, "expected no snapshot for unseeded stream")

		require.NoError(t, s.SaveSnapshot(ctx, stream, 3, map[string]any{"total": float64(6)}))

		snap, err = s.LoadSnapshot(ctx, stream)
		require.NoError(t, err)
		require.True(t, snap.Found)
		require.EqualValues(t, 3, snap.Version)
	})

	t.Run("metadata round-trips through append and read", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		stream := eventry.StreamName("s")

		md := eventry.Metadata{"tenant_id": "acme", "correlation_id": "corr-1"}
		_, err := eventry.Append(ctx, s, stream, eventry.ExpectNoStream(), eventry.Events(opened("0")), eventry.WithMetadata(md))
		require.NoError(t, err)

		recorded := collect(t, s, stream, eventry.ReadAll())
		require.Len(t, recorded, 1)
		require.Equal(t, "acme", recorded[0].Metadata()["tenant_id"])
		require.Equal(t, "corr-1", recorded[0].Metadata()["correlation_id"])
	})

	t.Run("version predicate decision table", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		noStream := eventry.StreamName("missing")
		_, ok, err := s.AttemptAppend(ctx, noStream, eventry.ExpectExists(), eventry.Events(opened("x")))
		require.NoError(t, err)
		require.False(t, ok, "ExpectExists against a missing stream must be rejected")

		existing := eventry.StreamName("existing")
		_, err = eventry.Append(ctx, s, existing, eventry.ExpectNoStream(), eventry.Events(opened("y")))
		require.NoError(t, err)

		_, err = eventry.Append(ctx, s, existing, eventry.ExpectAny(), eventry.Events(added("z", 1)))
		require.NoError(t, err, "ExpectAny must always succeed when the store is otherwise consistent")

		_, ok, err = s.AttemptAppend(ctx, existing, eventry.ExpectNoStream(), eventry.Events(added("w", 2)))
		require.NoError(t, err)
		require.False(t, ok, "ExpectNoStream against an existing stream must be rejected")
	})
}
