//go:build integration

package sql_test

import (
	"context"
	dsql "database/sql"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kpaxton/eventry"
	"github.com/kpaxton/eventry/internal/storetest"
	eventrysql "github.com/kpaxton/eventry/stores/sql"
)

func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

func setupPostgres(t *testing.T) *dsql.DB {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("docker is not available, skipping postgres integration test")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("eventry_test"),
		postgres.WithUsername("eventry"),
		postgres.WithPassword("eventry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "connection string")

	db, err := dsql.Open("postgres", connStr)
	require.NoError(t, err, "open postgres connection")
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestStore_Compliance_Postgres(t *testing.T) {
	db := setupPostgres(t)
	dialect := eventrysql.Postgres{}
	require.NoError(t, eventrysql.Migrate(db, dialect))

	storetest.Run(t, func(t *testing.T) eventry.EventStore {
		return eventrysql.New(db, dialect, storetest.Registry())
	})
}
