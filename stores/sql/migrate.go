package sql

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies every pending migration for d's schema against db.
// Safe to call on every startup: a store already at the latest
// migration is a no-op.
func Migrate(db *sql.DB, d Dialect) error {
	source, err := iofs.New(FS, d.MigrationsPath())
	if err != nil {
		return fmt.Errorf("eventry/stores/sql: could not open embedded migrations: %w", err)
	}

	driver, err := databaseDriver(db, d)
	if err != nil {
		return fmt.Errorf("eventry/stores/sql: could not build migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, d.Name(), driver)
	if err != nil {
		return fmt.Errorf("eventry/stores/sql: could not build migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("eventry/stores/sql: migration failed: %w", err)
	}
	return nil
}

func databaseDriver(db *sql.DB, d Dialect) (database.Driver, error) {
	switch d.Name() {
	case "postgres":
		return postgres.WithInstance(db, &postgres.Config{})
	case "sqlite":
		return sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("eventry/stores/sql: unknown dialect %q", d.Name())
	}
}
