// Package config reads the handful of environment variables eventry
// supports. It is intentionally minimal: general configuration loading
// and packaging is out of scope for this module (see spec.md §1); this
// only covers the overrides the spec itself names.
package config

import "os"

const (
	// RecordedEventsTableNameEnv overrides the SQL store's events table
	// name.
	RecordedEventsTableNameEnv = "EVENTRY_SQL_RECORDED_EVENTS_TABLE_NAME"
	// DefaultRecordedEventsTableName is used when RecordedEventsTableNameEnv
	// is unset.
	DefaultRecordedEventsTableName = "eventry_recorded_events_v2"

	// SQLDialectEnv selects which SQL dialect stores/sql targets:
	// "sqlite" (default) or "postgres".
	SQLDialectEnv = "EVENTRY_SQL_DIALECT"
	// DefaultSQLDialect is used when SQLDialectEnv is unset.
	DefaultSQLDialect = "sqlite"
)

// RecordedEventsTableName returns the configured events table name, or
// DefaultRecordedEventsTableName if EVENTRY_SQL_RECORDED_EVENTS_TABLE_NAME
// is unset.
func RecordedEventsTableName() string {
	return getOrDefault(RecordedEventsTableNameEnv, DefaultRecordedEventsTableName)
}

// SQLDialect returns the configured SQL dialect name, or DefaultSQLDialect
// if EVENTRY_SQL_DIALECT is unset.
func SQLDialect() string {
	return getOrDefault(SQLDialectEnv, DefaultSQLDialect)
}

func getOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
