package tenant

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lorekeep/lorekeep/db"
	"github.com/lorekeep/lorekeep/errors"
)

// handle is one world's cached store. ready is closed once the winner of a
// first-open race has finished creating and healing the store; late arrivals
// block on it and share the result instead of racing to create their own.
type handle struct {
	ready chan struct{}
	db    *sql.DB
	err   error
}

// Router resolves world names to isolated store handles, creating and healing
// each store transparently on first use. Handles are cached for the lifetime
// of the process; worlds are few and long-lived within a session.
type Router struct {
	dir           string
	busyTimeoutMS int
	mu            sync.Mutex
	opens         map[string]*handle
	logger        *zap.SugaredLogger
}

// NewRouter creates a router whose world stores live under dir, one
// self-contained <world>.db file per world. busyTimeoutMS is applied to every
// store it opens; <= 0 uses the db package default.
func NewRouter(dir string, busyTimeoutMS int, logger *zap.SugaredLogger) *Router {
	if logger != nil {
		logger = logger.Named("tenant.router")
	}
	return &Router{
		dir:           dir,
		busyTimeoutMS: busyTimeoutMS,
		opens:         make(map[string]*handle),
		logger:        logger,
	}
}

// Handle returns the store for the context's active world.
// Fails with ErrTenantNotSpecified when no world is bound and with
// ErrStorageUnavailable when the store cannot be created or opened — fatal to
// the unit of work, never a silent fallback to some default world.
func (r *Router) Handle(ctx context.Context) (*sql.DB, error) {
	world, err := From(ctx)
	if err != nil {
		return nil, err
	}
	return r.open(world)
}

// open is compute-if-absent keyed by world name: concurrent first-accesses for
// the same new world result in exactly one creation and one heal run.
func (r *Router) open(world string) (*sql.DB, error) {
	if err := validateWorldName(world); err != nil {
		return nil, err
	}

	r.mu.Lock()
	h, ok := r.opens[world]
	if ok {
		r.mu.Unlock()
		<-h.ready
		return h.db, h.err
	}

	h = &handle{ready: make(chan struct{})}
	r.opens[world] = h
	r.mu.Unlock()

	// This goroutine won the race; everyone else waits on h.ready.
	h.db, h.err = r.create(world)
	if h.err != nil {
		// Later requests may retry; a transient I/O failure must not poison
		// the world for the rest of the process.
		r.mu.Lock()
		delete(r.opens, world)
		r.mu.Unlock()
	}
	close(h.ready)

	return h.db, h.err
}

// create opens (or lazily creates) the world's store file and heals its
// schema before any caller can observe the handle.
func (r *Router) create(world string) (*sql.DB, error) {
	path := filepath.Join(r.dir, world+".db")

	store, err := db.Open(path, r.busyTimeoutMS, r.logger)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "open world %q: %v", world, err)
	}

	if err := db.Heal(store, r.logger); err != nil {
		store.Close()
		return nil, errors.Wrapf(errors.ErrStorageUnavailable, "heal world %q: %v", world, err)
	}

	if r.logger != nil {
		r.logger.Infow("World store ready", "world", world, "path", path)
	}
	return store, nil
}

// Known lists every world with a store file in the workspace directory,
// including ones this process has not opened yet.
func (r *Router) Known() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read workspace directory")
	}

	var worlds []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".db") {
			continue
		}
		worlds = append(worlds, strings.TrimSuffix(name, ".db"))
	}
	sort.Strings(worlds)
	return worlds, nil
}

// HealAll runs the schema migrator against every known world as an explicit
// maintenance operation. Per-world failures are logged and skipped; the
// returned error reflects only a failure to enumerate worlds.
func (r *Router) HealAll(ctx context.Context) error {
	worlds, err := r.Known()
	if err != nil {
		return err
	}

	for _, world := range worlds {
		store, err := r.open(world)
		if err != nil {
			if r.logger != nil {
				r.logger.Errorw("Skipping unhealable world", "world", world, "error", err)
			}
			continue
		}
		// open heals on first open; re-heal cached handles too so a
		// maintenance pass always inspects current structure
		if err := db.Heal(store, r.logger); err != nil {
			// A handle closed out from under us is stale, not broken:
			// drop it and let the reopen run the heal.
			if db.IsDatabaseClosed(err) {
				r.drop(world)
				if _, err := r.open(world); err == nil {
					continue
				}
			}
			if r.logger != nil {
				r.logger.Errorw("Heal failed for world", "world", world, "error", err)
			}
		}
	}
	return nil
}

// drop evicts a world's cached handle without closing it. Used when the
// underlying connection is already gone and the handle must be rebuilt.
func (r *Router) drop(world string) {
	r.mu.Lock()
	delete(r.opens, world)
	r.mu.Unlock()
}

// Close closes every cached handle. Handles reopen lazily on next use.
func (r *Router) Close() error {
	r.mu.Lock()
	opens := r.opens
	r.opens = make(map[string]*handle)
	r.mu.Unlock()

	var firstErr error
	for world, h := range opens {
		<-h.ready
		if h.db == nil {
			continue
		}
		if err := h.db.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close world %q", world)
		}
	}
	return firstErr
}

// validateWorldName rejects names that would escape the workspace directory
// or collide with the store file naming scheme.
func validateWorldName(world string) error {
	if world == "" {
		return errors.WithStack(errors.ErrTenantNotSpecified)
	}
	if strings.ContainsAny(world, `/\`) || world == "." || world == ".." || strings.Contains(world, "..") {
		return errors.Newf("invalid world name %q", world)
	}
	return nil
}
