package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lorekeep/lorekeep/am"
	"github.com/lorekeep/lorekeep/logger"
	"github.com/lorekeep/lorekeep/tenant"
)

// newRouter builds a tenant router over the configured workspace directory.
// Callers own Close().
func newRouter() (*tenant.Router, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return tenant.NewRouter(cfg.WorkspaceDir(), cfg.Database.BusyTimeoutMS, logger.Logger), nil
}

// withWorldStore resolves the world's store handle and runs fn inside the
// world's scope. Every storage-touching command goes through here so the
// active world is always explicit.
func withWorldStore(world string, fn func(ctx context.Context, store *sql.DB) error) error {
	r, err := newRouter()
	if err != nil {
		return err
	}
	defer r.Close()

	return tenant.Scope(context.Background(), world, func(ctx context.Context) error {
		store, err := r.Handle(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, store)
	})
}
