package eventry

import (
	"context"
	"iter"
	"math"
	"time"
)

// ReadInstruction describes how to read a single stream: from which
// position (nil means "from the beginning" when reading forward, "from
// the end" when reading backward), and how many events at most.
type ReadInstruction struct {
	StreamPosition *StreamVersion
	Limit          int
}

// ReadFrom builds a ReadInstruction starting at position with limit events.
func ReadFrom(position StreamVersion, limit int) ReadInstruction {
	return ReadInstruction{StreamPosition: &position, Limit: limit}
}

// ReadAll builds a ReadInstruction covering the whole stream.
func ReadAll() ReadInstruction {
	return ReadInstruction{Limit: math.MaxInt}
}

func (i ReadInstruction) limitOrDefault() int {
	if i.Limit <= 0 {
		return math.MaxInt
	}
	return i.Limit
}

// RecordedEvent is an event as returned by a read: the event itself, the
// stream it came from, and the two positions the store assigned it.
// Immutable once constructed.
type RecordedEvent struct {
	event          Event
	streamName     StreamName
	streamPosition StreamVersion
	commitPosition CommitPosition
	metadata       Metadata
}

// NewRecordedEvent constructs a RecordedEvent. Store implementations use
// this; callers only ever receive values built by a store.
func NewRecordedEvent(event Event, streamName StreamName, streamPosition StreamVersion, commitPosition CommitPosition, metadata Metadata) RecordedEvent {
	return RecordedEvent{
		event:          event,
		streamName:     streamName,
		streamPosition: streamPosition,
		commitPosition: commitPosition,
		metadata:       metadata,
	}
}

func (r RecordedEvent) Event() Event                  { return r.event }
func (r RecordedEvent) StreamName() StreamName        { return r.streamName }
func (r RecordedEvent) StreamPosition() StreamVersion { return r.streamPosition }
func (r RecordedEvent) CommitPosition() CommitPosition { return r.commitPosition }
func (r RecordedEvent) Metadata() Metadata            { return r.metadata }

// appendOptions carries the optional behavior of AttemptAppend/Append.
type appendOptions struct {
	timeout  *time.Duration
	metadata Metadata
}

// AppendOption configures an append call.
type AppendOption func(*appendOptions)

// WithAppendTimeout bounds how long AttemptAppend may spend consuming the
// input events before it fails with ErrTimeout. Only the in-memory store
// supports this; the SQL store rejects it (see AssertTimeoutNotSupported).
func WithAppendTimeout(d time.Duration) AppendOption {
	return func(o *appendOptions) { o.timeout = &d }
}

// WithMetadata attaches Metadata to the events committed by this append.
func WithMetadata(md Metadata) AppendOption {
	return func(o *appendOptions) { o.metadata = md }
}

func resolveAppendOptions(opts []AppendOption) appendOptions {
	var o appendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// readOptions carries the optional behavior of ReadStreams.
type readOptions struct {
	backwards bool
	limit     int
}

// ReadOption configures a read call.
type ReadOption func(*readOptions)

// Backwards reverses per-stream ordering.
func Backwards() ReadOption {
	return func(o *readOptions) { o.backwards = true }
}

// WithReadLimit caps the total number of events yielded across all
// requested streams.
func WithReadLimit(n int) ReadOption {
	return func(o *readOptions) { o.limit = n }
}

func resolveReadOptions(opts []ReadOption) readOptions {
	o := readOptions{limit: math.MaxInt}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Snapshot represents a cached, replayable state for a stream at a given
// version. It is an optimization only: failing to save or find one must
// never change the outcome of a replay, only its cost.
type Snapshot struct {
	State   any
	Version StreamVersion
	Found   bool
	At      time.Time
}

// EventStore is the append-only, optimistically-concurrent log: a store
// sharded into named streams, with
// a monotonically increasing global commit position and multi-stream
// reads. Implementations must be safe for concurrent use.
type EventStore interface {
	// AttemptAppend consumes events eagerly (honoring WithAppendTimeout)
	// and, if expected matches the stream's actual state, atomically
	// appends them, assigning each the next stream_position and a fresh
	// block of commit_positions. ok is false, with no side effects, when
	// the version check failed. An empty events sequence is a no-op that
	// reports the store's current highest commit position.
	AttemptAppend(ctx context.Context, stream StreamName, expected ExpectedVersion, events iter.Seq[Event], opts ...AppendOption) (pos CommitPosition, ok bool, err error)

	// ReadStreams yields RecordedEvents for every named stream according
	// to its ReadInstruction. Cross-stream ordering is unspecified;
	// callers who need one must sort by CommitPosition.
	ReadStreams(ctx context.Context, instructions map[StreamName]ReadInstruction, opts ...ReadOption) iter.Seq2[RecordedEvent, error]

	// CommitPosition returns the highest assigned commit position, or
	// NoCommitPosition for an empty store.
	CommitPosition(ctx context.Context) (CommitPosition, error)

	// CurrentVersion reports a stream's actual state, for use by
	// IsVersionCorrect and by callers inspecting a stream directly.
	CurrentVersion(ctx context.Context, stream StreamName) (StreamActual, error)

	// SaveSnapshot upserts a cached state for stream at version. Safe to
	// treat as a cache: failure here must not affect event consistency.
	SaveSnapshot(ctx context.Context, stream StreamName, version StreamVersion, state any) error

	// LoadSnapshot retrieves the latest snapshot for stream, if any.
	LoadSnapshot(ctx context.Context, stream StreamName) (Snapshot, error)
}

// Append is the non-optional variant of AttemptAppend: it raises
// ErrVersionConflict (as a *VersionConflictError) instead of returning ok=false.
func Append(ctx context.Context, store EventStore, stream StreamName, expected ExpectedVersion, events iter.Seq[Event], opts ...AppendOption) (CommitPosition, error) {
	pos, ok, err := store.AttemptAppend(ctx, stream, expected, events, opts...)
	if err != nil {
		return 0, err
	}
	if !ok {
		actual, actualErr := store.CurrentVersion(ctx, stream)
		if actualErr != nil {
			return 0, actualErr
		}
		return 0, &VersionConflictError{Stream: stream, Expected: expected, Actual: actual}
	}
	return pos, nil
}

// AppendEvent is syntax sugar to append a single event to a stream.
func AppendEvent(ctx context.Context, store EventStore, stream StreamName, expected ExpectedVersion, event Event, opts ...AppendOption) (CommitPosition, error) {
	return Append(ctx, store, stream, expected, Events(event), opts...)
}

// ReadStream reads a single stream, syntax sugar around ReadStreams.
func ReadStream(ctx context.Context, store EventStore, stream StreamName, instruction ReadInstruction, opts ...ReadOption) iter.Seq2[RecordedEvent, error] {
	return store.ReadStreams(ctx, map[StreamName]ReadInstruction{stream: instruction}, opts...)
}

// AssertTimeoutNotSupported panics if a timeout was requested against a
// backend that cannot honor one (the SQL store). Passing a timeout there
// is a programming error, not a recoverable condition.
func AssertTimeoutNotSupported(opts appendOptionsView) {
	if opts.Timeout() != nil {
		panic("eventry: timeout is not supported by this EventStore implementation")
	}
}

// appendOptionsView is the read-only view of appendOptions exposed across
// package boundaries (store implementations live in separate modules).
type appendOptionsView struct {
	o appendOptions
}

func (v appendOptionsView) Timeout() *time.Duration { return v.o.timeout }
func (v appendOptionsView) Metadata() Metadata      { return v.o.metadata }

// ResolveAppendOptions is exported so out-of-module EventStore
// implementations (stores/mem, stores/sql) can resolve AppendOption
// values without reaching into unexported fields.
func ResolveAppendOptions(opts []AppendOption) appendOptionsView {
	return appendOptionsView{o: resolveAppendOptions(opts)}
}

// ReadOptionsView is the read-only view of readOptions exposed across
// package boundaries.
type ReadOptionsView struct {
	o readOptions
}

func (v ReadOptionsView) Backwards() bool { return v.o.backwards }
func (v ReadOptionsView) Limit() int      { return v.o.limit }

// ResolveReadOptions is exported so out-of-module EventStore
// implementations can resolve ReadOption values.
func ResolveReadOptions(opts []ReadOption) ReadOptionsView {
	return ReadOptionsView{o: resolveReadOptions(opts)}
}
