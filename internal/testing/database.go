package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap/zaptest"

	"github.com/lorekeep/lorekeep/db"
)

// CreateTestStore opens a throwaway world store in a temp dir and heals it to
// the current schema. Cleanup is registered via t.Cleanup().
func CreateTestStore(t *testing.T) *sql.DB {
	t.Helper()

	logger := zaptest.NewLogger(t).Sugar()
	store, err := db.Open(filepath.Join(t.TempDir(), "world.db"), 0, logger)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	if err := db.Heal(store, logger); err != nil {
		t.Fatalf("failed to heal test store: %v", err)
	}
	return store
}
