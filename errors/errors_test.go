package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWrapf(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "wrapped: %d", 42)

	assert.Contains(t, wrapped.Error(), "wrapped: 42")
	assert.Contains(t, wrapped.Error(), "original")
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	original := &customError{msg: "custom"}
	wrapped := Wrap(original, "wrapped")

	var target *customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.msg)
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"folder sentinel", ErrFolderNotFound, true},
		{"entity sentinel", ErrEntityNotFound, true},
		{"template sentinel", ErrTemplateNotFound, true},
		{"value sentinel", ErrValueNotFound, true},
		{"node sentinel", ErrNodeNotFound, true},
		{"relation sentinel", ErrRelationNotFound, true},
		{"wrapped entity", Wrap(ErrEntityNotFound, "get aria"), true},
		{"formatted", NewNotFoundf(ErrFolderNotFound, "folder %d", 7), true},
		{"storage failure", ErrStorageUnavailable, false},
		{"plain error", New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsNotFound(tc.err))
		})
	}
}

func TestIsInvalidAttributeValue(t *testing.T) {
	err := NewInvalidValuef("number template rejects %q", "abc")

	assert.True(t, IsInvalidAttributeValue(err))
	assert.Contains(t, err.Error(), `number template rejects "abc"`)
	assert.False(t, IsInvalidAttributeValue(New("other")))
	assert.False(t, IsInvalidAttributeValue(nil))
}

func TestIsStorageUnavailable(t *testing.T) {
	err := Wrap(ErrStorageUnavailable, "open mundo1.db")

	assert.True(t, IsStorageUnavailable(err))
	assert.False(t, IsStorageUnavailable(ErrTenantNotSpecified))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrTenantNotSpecified,
		ErrStorageUnavailable,
		ErrFolderNotFound,
		ErrEntityNotFound,
		ErrTemplateNotFound,
		ErrValueNotFound,
		ErrInvalidAttributeValue,
		ErrSlugCollision,
		ErrNodeNotFound,
		ErrRelationNotFound,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "sentinel %v should not match %v", a, b)
		}
	}
}

func ExampleWrap() {
	baseErr := New("connection failed")
	err := Wrap(baseErr, "failed to open world store")
	fmt.Println(err)
	// Output: failed to open world store: connection failed
}
