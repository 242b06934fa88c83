package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpen(t *testing.T) {
	t.Run("opens database successfully", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := Open(dbPath, 0, nil)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify WAL mode enabled
		var journalMode string
		err = db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		assert.Equal(t, "wal", journalMode)

		// Verify foreign keys enabled
		var foreignKeys int
		err = db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
		require.NoError(t, err)
		assert.Equal(t, 1, foreignKeys)

		// Verify busy timeout set
		var busyTimeout int
		err = db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout)
		require.NoError(t, err)
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
	})

	t.Run("creates parent directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "worlds", "nested", "mundo1.db")

		db, err := Open(dbPath, 0, zaptest.NewLogger(t).Sugar())
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, db.Ping())
	})

	t.Run("returns error for unusable path", func(t *testing.T) {
		// A directory cannot be opened as a database file
		tmpDir := t.TempDir()

		db, err := Open(tmpDir, 0, nil)
		if err == nil && db != nil {
			// Some platforms defer the failure to the first statement
			err = db.Ping()
			db.Close()
		}
		assert.Error(t, err)
	})

	t.Run("applies configured busy timeout", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(dbPath, 1234, nil)
		require.NoError(t, err)
		defer db.Close()

		var busyTimeout int
		require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
		assert.Equal(t, 1234, busyTimeout)
	})
}
