package mem_test

import (
	"testing"

	"github.com/kpaxton/eventry"
	"github.com/kpaxton/eventry/internal/storetest"
	"github.com/kpaxton/eventry/stores/mem"
)

func TestStore_Compliance(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) eventry.EventStore {
		t.Helper()
		return mem.New()
	})
}
