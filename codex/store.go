package codex

import (
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Store is the repository for one world's content model. It operates against
// the world's isolated handle resolved by the tenant router; it never holds a
// handle for more than one world.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a content store bound to one world's database handle.
func NewStore(db *sql.DB, logger *zap.SugaredLogger) *Store {
	if logger != nil {
		logger = logger.Named("codex.store")
	}
	return &Store{
		db:     db,
		logger: logger,
	}
}

// now returns the timestamp written into soft-delete and update columns.
// UTC so stores stay comparable when a workspace moves between machines.
func now() time.Time {
	return time.Now().UTC()
}

// nullableTime adapts *time.Time for sql scanning/writing.
func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nullableID adapts sql.NullInt64 to *int64.
func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
