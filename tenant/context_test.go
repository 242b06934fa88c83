package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/errors"
)

func TestFromUnboundContext(t *testing.T) {
	_, err := From(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTenantNotSpecified))
}

func TestWithAndFrom(t *testing.T) {
	ctx := With(context.Background(), "mundo1")

	world, err := From(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mundo1", world)
}

func TestClear(t *testing.T) {
	ctx := With(context.Background(), "mundo1")
	ctx = Clear(ctx)

	_, err := From(ctx)
	assert.True(t, errors.Is(err, errors.ErrTenantNotSpecified))
}

func TestScopeBindsForDurationOfCall(t *testing.T) {
	outer := context.Background()

	err := Scope(outer, "mundo1", func(ctx context.Context) error {
		world, err := From(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mundo1", world)
		return nil
	})
	require.NoError(t, err)

	// The caller's context is untouched on every exit path
	_, err = From(outer)
	assert.True(t, errors.Is(err, errors.ErrTenantNotSpecified))
}

func TestScopePropagatesError(t *testing.T) {
	sentinel := errors.New("inner failure")

	err := Scope(context.Background(), "mundo1", func(ctx context.Context) error {
		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))
}

func TestScopeRejectsEmptyWorld(t *testing.T) {
	called := false
	err := Scope(context.Background(), "", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.True(t, errors.Is(err, errors.ErrTenantNotSpecified))
	assert.False(t, called)
}

func TestScopeDoesNotLeakAcrossRequests(t *testing.T) {
	base := context.Background()

	require.NoError(t, Scope(base, "mundo1", func(ctx context.Context) error { return nil }))
	require.NoError(t, Scope(base, "mundo2", func(ctx context.Context) error {
		world, err := From(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mundo2", world)
		return nil
	}))
}
