// Package sql provides a database/sql-backed eventry.EventStore that
// speaks either SQLite or PostgreSQL through a small Dialect seam,
// generalizing the teacher's Postgres/pgx-only store. Grounded on the
// teacher's stores/pgx/pgx_store.go, with the dual-dialect split and
// stream-identity/query-builder choices from spec.md §4.4 (see
// SPEC_FULL.md §4.4).
package sql

import (
	"github.com/Masterminds/squirrel"
)

// Dialect isolates the handful of ways SQLite and PostgreSQL disagree:
// driver name, migration source, placeholder style, and how a unique
// constraint violation surfaces as a Go error.
type Dialect interface {
	// Name identifies the dialect for config.SQLDialect / logging.
	Name() string

	// DriverName is the database/sql driver registered for this dialect.
	DriverName() string

	// MigrationsPath is the embedded migrations subdirectory for this
	// dialect (see migrations.FS).
	MigrationsPath() string

	// PlaceholderFormat is squirrel's placeholder style for this
	// dialect ($1.. for postgres, ? for sqlite).
	PlaceholderFormat() squirrel.PlaceholderFormat

	// IsUniqueViolation reports whether err is a unique-constraint
	// violation on the events table, meaning AttemptAppend lost a race
	// and must retry.
	IsUniqueViolation(err error) bool
}

// StatementBuilder returns a squirrel statement builder configured with
// d's placeholder style, ready to run against db.
func StatementBuilder(db squirrel.BaseRunner, d Dialect) squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.PlaceholderFormat()).RunWith(db)
}
