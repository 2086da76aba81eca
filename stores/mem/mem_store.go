// Package mem provides an in-memory eventry.EventStore, the behavioral
// oracle every other store implementation must match. Concurrency-safe,
// suitable for tests, prototypes, and local runs; everything is lost on
// restart. Grounded on the teacher's stores/mem/mem_store.go, generalized
// to the stream-position/commit-position model of venty's
// in_memory_event_store.py.
package mem

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/kpaxton/eventry"
)

// Store is an in-memory EventStore implementation.
type Store struct {
	mu        sync.RWMutex
	streams   map[eventry.StreamName][]storedEvent
	commitSeq int64
	snapshots map[eventry.StreamName]snapshotEntry
	extractor eventry.MetadataExtractor
}

type storedEvent struct {
	event          eventry.Event
	streamPosition eventry.StreamVersion
	commitPosition eventry.CommitPosition
	metadata       eventry.Metadata
	at             time.Time
}

type snapshotEntry struct {
	version eventry.StreamVersion
	state   any
	at      time.Time
}

// Option configures the in-memory Store.
type Option func(*Store)

// WithMetadataExtractor sets a function that builds Metadata from
// context. When provided, AttemptAppend merges extracted metadata with
// the explicit metadata passed via WithMetadata; explicit keys take
// precedence over extracted ones.
func WithMetadataExtractor(ex eventry.MetadataExtractor) Option {
	return func(s *Store) { s.extractor = ex }
}

// New creates a new in-memory Store.
func New(opts ...Option) *Store {
	st := &Store{
		streams:   make(map[eventry.StreamName][]storedEvent),
		snapshots: make(map[eventry.StreamName]snapshotEntry),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

func (s *Store) actualLocked(stream eventry.StreamName) eventry.StreamActual {
	seq := s.streams[stream]
	if len(seq) == 0 {
		return eventry.StreamActual{Exists: false, Version: eventry.NoEventVersion}
	}
	return eventry.StreamActual{Exists: true, Version: seq[len(seq)-1].streamPosition}
}

func (s *Store) commitPositionLocked() eventry.CommitPosition {
	if s.commitSeq == 0 {
		return eventry.NoCommitPosition
	}
	return eventry.CommitPosition(s.commitSeq - 1)
}

// AttemptAppend implements eventry.EventStore.
func (s *Store) AttemptAppend(
	ctx context.Context,
	stream eventry.StreamName,
	expected eventry.ExpectedVersion,
	events iter.Seq[eventry.Event],
	opts ...eventry.AppendOption,
) (eventry.CommitPosition, bool, error) {
	view := eventry.ResolveAppendOptions(opts)

	collected, err := eventry.CollectWithDeadline(events, view.Timeout())
	if err != nil {
		return 0, false, err
	}

	md := view.Metadata()
	if s.extractor != nil {
		md = s.extractor(ctx).Merge(md)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actual := s.actualLocked(stream)
	if !eventry.IsVersionCorrect(expected, func() eventry.StreamActual { return actual }) {
		return 0, false, nil
	}

	if len(collected) == 0 {
		return s.commitPositionLocked(), true, nil
	}

	seq := s.streams[stream]
	version := actual.Version
	now := time.Now()
	for _, e := range collected {
		version++
		s.commitSeq++
		seq = append(seq, storedEvent{
			event:          e,
			streamPosition: version,
			commitPosition: eventry.CommitPosition(s.commitSeq - 1),
			metadata:       md,
			at:             now,
		})
	}
	s.streams[stream] = seq
	return s.commitPositionLocked(), true, nil
}

// ReadStreams implements eventry.EventStore. Cross-stream ordering is
// unspecified: this implementation concatenates streams in map
// iteration order, and caps total events yielded at the overall limit.
func (s *Store) ReadStreams(
	ctx context.Context,
	instructions map[eventry.StreamName]eventry.ReadInstruction,
	opts ...eventry.ReadOption,
) iter.Seq2[eventry.RecordedEvent, error] {
	view := eventry.ResolveReadOptions(opts)

	return func(yield func(eventry.RecordedEvent, error) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		remaining := view.Limit()
		if remaining <= 0 {
			return
		}

		for stream, instr := range instructions {
			seq := s.streams[stream]

			start := 0
			if instr.StreamPosition != nil {
				start = int(*instr.StreamPosition)
				if start < 0 {
					start = 0
				}
			}
			if start > len(seq) {
				start = len(seq)
			}
			slice := seq[start:]

			perStreamLimit := instr.Limit
			if perStreamLimit <= 0 {
				perStreamLimit = len(slice)
			}

			order := make([]int, len(slice))
			for i := range slice {
				if view.Backwards() {
					order[i] = len(slice) - 1 - i
				} else {
					order[i] = i
				}
			}

			for _, idx := range order {
				if perStreamLimit <= 0 || remaining <= 0 {
					break
				}
				se := slice[idx]
				rec := eventry.NewRecordedEvent(se.event, stream, se.streamPosition, se.commitPosition, se.metadata)
				if !yield(rec, nil) {
					return
				}
				perStreamLimit--
				remaining--
			}
		}
	}
}

// CommitPosition implements eventry.EventStore.
func (s *Store) CommitPosition(context.Context) (eventry.CommitPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commitPositionLocked(), nil
}

// CurrentVersion implements eventry.EventStore.
func (s *Store) CurrentVersion(_ context.Context, stream eventry.StreamName) (eventry.StreamActual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actualLocked(stream), nil
}

// SaveSnapshot implements eventry.EventStore.
func (s *Store) SaveSnapshot(_ context.Context, stream eventry.StreamName, version eventry.StreamVersion, state any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[stream] = snapshotEntry{
		version: version,
		state:   state,
		at:      time.Now(),
	}
	return nil
}

// LoadSnapshot implements eventry.EventStore.
func (s *Store) LoadSnapshot(_ context.Context, stream eventry.StreamName) (eventry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[stream]
	if !ok {
		return eventry.Snapshot{Found: false}, nil
	}
	return eventry.Snapshot{
		State:   snap.state,
		Version: snap.version,
		Found:   true,
		At:      snap.at,
	}, nil
}

var _ eventry.EventStore = (*Store)(nil)
