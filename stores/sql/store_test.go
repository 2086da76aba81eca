package sql_test

import (
	dsql "database/sql"
	"testing"

	"github.com/kpaxton/eventry"
	"github.com/kpaxton/eventry/internal/storetest"
	eventrysql "github.com/kpaxton/eventry/stores/sql"
)

func TestStore_Compliance_SQLite(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) eventry.EventStore {
		t.Helper()

		db, err := dsql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })

		dialect := eventrysql.SQLite{}
		if err := eventrysql.Migrate(db, dialect); err != nil {
			t.Fatalf("migrate: %v", err)
		}

		return eventrysql.New(db, dialect, storetest.Registry())
	})
}
