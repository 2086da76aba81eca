package sql

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
)

// SQLite is the default Dialect (config.DefaultSQLDialect), matching
// spec.md §4.4's canonical schema literally: SQLite's
// "integer primary key autoincrement" is the exact DDL the spec quotes.
// Grounded on cacack-my-family's use of mattn/go-sqlite3.
type SQLite struct{}

func (SQLite) Name() string                                  { return "sqlite" }
func (SQLite) DriverName() string                             { return "sqlite3" }
func (SQLite) MigrationsPath() string                         { return "migrations/sqlite" }
func (SQLite) PlaceholderFormat() squirrel.PlaceholderFormat { return squirrel.Question }

func (SQLite) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

var _ Dialect = SQLite{}
