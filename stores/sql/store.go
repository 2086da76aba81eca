package sql

import (
	"context"
	dsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kpaxton/eventry"
	"github.com/kpaxton/eventry/config"
)

// streamNamespace is the fixed UUIDv5 namespace stream identity is
// derived against (spec.md §4.4).
var streamNamespace = uuid.MustParse("c3569d87-e091-4757-92e6-e2da40e00129")

func streamID(stream eventry.StreamName) uuid.UUID {
	return uuid.NewSHA1(streamNamespace, []byte(stream))
}

// Store is a database/sql-backed EventStore. It speaks whichever
// Dialect it is constructed with; callers choose sqlite or postgres
// (config.SQLDialect picks the default) but the store itself is
// dialect-agnostic beyond that seam.
type Store struct {
	db        *dsql.DB
	dialect   Dialect
	table     string
	registry  eventry.Registry
	extractor eventry.MetadataExtractor
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger used to report append retries
// (lost unique-constraint races). Defaults to zap.NewNop(). Grounded on
// Kostassoid-go-eventually's use of go.uber.org/zap throughout its store.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTableName overrides the events table name (default:
// config.RecordedEventsTableName()). The embedded migrations only
// create the default name, so a caller overriding this must also own
// schema management.
func WithTableName(name string) Option {
	return func(s *Store) { s.table = name }
}

// WithMetadataExtractor sets a function that builds Metadata from
// context, merged under any explicit eventry.WithMetadata value.
func WithMetadataExtractor(ex eventry.MetadataExtractor) Option {
	return func(s *Store) { s.extractor = ex }
}

// New builds a Store. registry decodes the "event" column's JSON back
// into typed payloads per CloudEvent type attribute.
func New(db *dsql.DB, dialect Dialect, registry eventry.Registry, opts ...Option) *Store {
	s := &Store{
		db:       db,
		dialect:  dialect,
		table:    config.RecordedEventsTableName(),
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(s.dialect.PlaceholderFormat())
}

// streamMetadata returns (highest stream_position, exists) for sid
// within tx, per spec.md §4.4's stream_metadata(stream, session).
func streamMetadata(ctx context.Context, q squirrel.BaseRunner, b squirrel.StatementBuilderType, table string, sid uuid.UUID) (eventry.StreamActual, error) {
	row := b.Select("max(stream_position)").From(table).
		Where(squirrel.Eq{"stream_id": sid[:]}).RunWith(q).QueryRowContext(ctx)

	var max dsql.NullInt64
	if err := row.Scan(&max); err != nil {
		return eventry.StreamActual{}, err
	}
	if !max.Valid {
		return eventry.StreamActual{Exists: false, Version: eventry.NoEventVersion}, nil
	}
	return eventry.StreamActual{Exists: true, Version: eventry.StreamVersion(max.Int64)}, nil
}

// AttemptAppend implements eventry.EventStore. It retries on a unique
// constraint violation on (stream_id, stream_position): someone else
// won the race, so the whole attempt (including the version check)
// starts over, per spec.md §4.4.
func (s *Store) AttemptAppend(
	ctx context.Context,
	stream eventry.StreamName,
	expected eventry.ExpectedVersion,
	events iter.Seq[eventry.Event],
	opts ...eventry.AppendOption,
) (eventry.CommitPosition, bool, error) {
	view := eventry.ResolveAppendOptions(opts)
	eventry.AssertTimeoutNotSupported(view)

	collected := make([]eventry.Event, 0)
	for e := range events {
		collected = append(collected, e)
	}

	md := view.Metadata()
	if s.extractor != nil {
		md = s.extractor(ctx).Merge(md)
	}

	sid := streamID(stream)

	for {
		pos, ok, retry, err := s.attemptAppendOnce(ctx, sid, expected, collected, md)
		if err != nil {
			return 0, false, err
		}
		if retry {
			s.logger.Debug("lost race on stream append, retrying",
				zap.String("stream", string(stream)),
				zap.String("dialect", s.dialect.Name()),
			)
			continue
		}
		return pos, ok, nil
	}
}

func (s *Store) attemptAppendOnce(
	ctx context.Context,
	sid uuid.UUID,
	expected eventry.ExpectedVersion,
	events []eventry.Event,
	md eventry.Metadata,
) (pos eventry.CommitPosition, ok bool, retry bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, false, fmt.Errorf("eventry/stores/sql: could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	b := s.builder()
	actual, err := streamMetadata(ctx, tx, b, s.table, sid)
	if err != nil {
		return 0, false, false, fmt.Errorf("eventry/stores/sql: could not read stream metadata: %w", err)
	}

	if !eventry.IsVersionCorrect(expected, func() eventry.StreamActual { return actual }) {
		return 0, false, false, nil
	}

	if len(events) == 0 {
		highest, err := highestCommitPosition(ctx, tx, b, s.table)
		if err != nil {
			return 0, false, false, err
		}
		if err := tx.Commit(); err != nil {
			return 0, false, false, fmt.Errorf("eventry/stores/sql: could not commit transaction: %w", err)
		}
		return highest, true, false, nil
	}

	metadata, err := json.Marshal(md)
	if err != nil {
		return 0, false, false, fmt.Errorf("eventry/stores/sql: could not encode metadata: %w", err)
	}

	version := actual.Version
	insert := b.Insert(s.table).Columns("stream_id", "stream_position", "event", "metadata")
	for _, e := range events {
		version++
		payload, err := e.MarshalStructuredJSON()
		if err != nil {
			return 0, false, false, fmt.Errorf("eventry/stores/sql: could not encode event: %w", err)
		}
		insert = insert.Values(sid[:], int64(version), string(payload), string(metadata))
	}

	if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			_ = tx.Rollback()
			return 0, false, true, nil
		}
		return 0, false, false, fmt.Errorf("eventry/stores/sql: could not insert events: %w", err)
	}

	highest, err := highestCommitPosition(ctx, tx, b, s.table)
	if err != nil {
		return 0, false, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, false, fmt.Errorf("eventry/stores/sql: could not commit transaction: %w", err)
	}
	return highest, true, false, nil
}

func highestCommitPosition(ctx context.Context, q squirrel.BaseRunner, b squirrel.StatementBuilderType, table string) (eventry.CommitPosition, error) {
	row := b.Select("max(id)").From(table).RunWith(q).QueryRowContext(ctx)
	var max dsql.NullInt64
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("eventry/stores/sql: could not read commit position: %w", err)
	}
	if !max.Valid {
		return eventry.NoCommitPosition, nil
	}
	return eventry.CommitPosition(max.Int64), nil
}

// ReadStreams implements eventry.EventStore, building one OR'd query of
// per-stream (stream_id = ? AND stream_position BETWEEN ? AND ?)
// predicates with squirrel, per spec.md §4.4.
func (s *Store) ReadStreams(
	ctx context.Context,
	instructions map[eventry.StreamName]eventry.ReadInstruction,
	opts ...eventry.ReadOption,
) iter.Seq2[eventry.RecordedEvent, error] {
	view := eventry.ResolveReadOptions(opts)

	return func(yield func(eventry.RecordedEvent, error) bool) {
		if len(instructions) == 0 {
			return
		}

		byStreamID := make(map[uuid.UUID]eventry.StreamName, len(instructions))
		or := squirrel.Or{}
		for stream, instr := range instructions {
			sid := streamID(stream)
			byStreamID[sid] = stream

			start := 0
			if instr.StreamPosition != nil {
				start = int(*instr.StreamPosition)
				if start < 0 {
					start = 0
				}
			}
			limit := instr.Limit
			if limit <= 0 {
				limit = 1<<31 - 1
			}
			end := start + limit
			if end < start {
				end = int(^uint(0) >> 1)
			}

			or = append(or, squirrel.And{
				squirrel.Eq{"stream_id": sid[:]},
				squirrel.GtOrEq{"stream_position": start},
				squirrel.LtOrEq{"stream_position": end},
			})
		}

		order := "stream_position asc"
		if view.Backwards() {
			order = "stream_position desc"
		}

		query := s.builder().
			Select("stream_id", "stream_position", "id", "event", "metadata").
			From(s.table).
			Where(or).
			OrderBy(order)

		rows, err := query.RunWith(s.db).QueryContext(ctx)
		if err != nil {
			yield(eventry.RecordedEvent{}, fmt.Errorf("eventry/stores/sql: could not query events: %w", err))
			return
		}
		defer rows.Close()

		remaining := view.Limit()
		if remaining <= 0 {
			remaining = 1<<31 - 1
		}

		for rows.Next() {
			if remaining <= 0 {
				return
			}

			var sidBytes []byte
			var position int64
			var commit int64
			var raw string
			var rawMetadata string
			if err := rows.Scan(&sidBytes, &position, &commit, &raw, &rawMetadata); err != nil {
				yield(eventry.RecordedEvent{}, fmt.Errorf("eventry/stores/sql: could not scan event: %w", err))
				return
			}

			sid, err := uuid.FromBytes(sidBytes)
			if err != nil {
				yield(eventry.RecordedEvent{}, fmt.Errorf("eventry/stores/sql: malformed stream id: %w", err))
				return
			}
			stream, ok := byStreamID[sid]
			if !ok {
				continue
			}

			event, err := eventry.UnmarshalStructuredJSON([]byte(raw), s.registry.Decode)
			if err != nil {
				yield(eventry.RecordedEvent{}, fmt.Errorf("eventry/stores/sql: could not decode event: %w", err))
				return
			}

			var metadata eventry.Metadata
			if err := json.Unmarshal([]byte(rawMetadata), &metadata); err != nil {
				yield(eventry.RecordedEvent{}, fmt.Errorf("eventry/stores/sql: could not decode metadata: %w", err))
				return
			}

			rec := eventry.NewRecordedEvent(event, stream, eventry.StreamVersion(position), eventry.CommitPosition(commit), metadata)
			if !yield(rec, nil) {
				return
			}
			remaining--
		}
		if err := rows.Err(); err != nil {
			yield(eventry.RecordedEvent{}, fmt.Errorf("eventry/stores/sql: error iterating rows: %w", err))
		}
	}
}

// CommitPosition implements eventry.EventStore.
func (s *Store) CommitPosition(ctx context.Context) (eventry.CommitPosition, error) {
	return highestCommitPosition(ctx, s.db, s.builder(), s.table)
}

// CurrentVersion implements eventry.EventStore.
func (s *Store) CurrentVersion(ctx context.Context, stream eventry.StreamName) (eventry.StreamActual, error) {
	return streamMetadata(ctx, s.db, s.builder(), s.table, streamID(stream))
}

// SaveSnapshot implements eventry.EventStore.
func (s *Store) SaveSnapshot(ctx context.Context, stream eventry.StreamName, version eventry.StreamVersion, state any) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("eventry/stores/sql: could not encode snapshot state: %w", err)
	}

	sid := streamID(stream)
	switch s.dialect.Name() {
	case "postgres":
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO snapshots (stream_id, version, state, at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (stream_id) DO UPDATE SET version = EXCLUDED.version, state = EXCLUDED.state, at = EXCLUDED.at`,
			sid[:], int64(version), string(data), time.Now())
	default:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO snapshots (stream_id, version, state, at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (stream_id) DO UPDATE SET version = excluded.version, state = excluded.state, at = excluded.at`,
			sid[:], int64(version), string(data), time.Now())
	}
	if err != nil {
		return fmt.Errorf("eventry/stores/sql: could not upsert snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot implements eventry.EventStore.
func (s *Store) LoadSnapshot(ctx context.Context, stream eventry.StreamName) (eventry.Snapshot, error) {
	return s.loadSnapshot(ctx, streamID(stream))
}

func (s *Store) loadSnapshot(ctx context.Context, sid uuid.UUID) (eventry.Snapshot, error) {
	query, args, err := s.builder().Select("version", "state", "at").From("snapshots").
		Where(squirrel.Eq{"stream_id": sid[:]}).ToSql()
	if err != nil {
		return eventry.Snapshot{}, fmt.Errorf("eventry/stores/sql: could not build snapshot query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	var version int64
	var raw string
	var at time.Time
	if err := row.Scan(&version, &raw, &at); err != nil {
		if errors.Is(err, dsql.ErrNoRows) {
			return eventry.Snapshot{Found: false}, nil
		}
		return eventry.Snapshot{}, fmt.Errorf("eventry/stores/sql: could not scan snapshot: %w", err)
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return eventry.Snapshot{}, fmt.Errorf("eventry/stores/sql: could not decode snapshot state: %w", err)
	}

	return eventry.Snapshot{State: state, Version: eventry.StreamVersion(version), Found: true, At: at}, nil
}

var _ eventry.EventStore = (*Store)(nil)
