// Package tenant scopes every unit of work to exactly one world and routes it
// to that world's isolated store.
//
// The active world travels in the context.Context, bound once at the request
// boundary and released structurally when the scope ends. There is no ambient
// global state: code that needs a store must be handed a context with a world
// bound, which keeps one request's world from ever leaking into another.
package tenant

import (
	"context"

	"github.com/lorekeep/lorekeep/errors"
)

type ctxKey struct{}

// With returns a context with the given world bound as active.
func With(ctx context.Context, world string) context.Context {
	return context.WithValue(ctx, ctxKey{}, world)
}

// From returns the active world bound to the context.
// Fails with ErrTenantNotSpecified when no world is bound.
func From(ctx context.Context) (string, error) {
	world, ok := ctx.Value(ctxKey{}).(string)
	if !ok || world == "" {
		return "", errors.WithHint(errors.ErrTenantNotSpecified,
			"bind a world with tenant.Scope before touching storage")
	}
	return world, nil
}

// Clear returns a context with no world bound. Useful at trust boundaries
// where an inherited binding must not carry over.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, "")
}

// Scope runs fn with the world bound as active. The binding lives exactly as
// long as the call: every exit path (success, error, panic) leaves the
// caller's context untouched, so release needs no cleanup step.
func Scope(ctx context.Context, world string, fn func(context.Context) error) error {
	if world == "" {
		return errors.WithStack(errors.ErrTenantNotSpecified)
	}
	return fn(With(ctx, world))
}
