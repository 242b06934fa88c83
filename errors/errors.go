// Package errors provides error handling for lorekeep.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrEntityNotFound) {
//	    // handle not found
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Sentinel errors for the lorekeep core.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the kind.
var (
	// ErrTenantNotSpecified indicates a storage operation ran with no active world bound
	ErrTenantNotSpecified = New("no active world")

	// ErrStorageUnavailable indicates a world's store could not be created or opened.
	// Fatal to the unit of work; there is no fallback store.
	ErrStorageUnavailable = New("world storage unavailable")

	// ErrFolderNotFound indicates the requested folder does not exist or is deleted
	ErrFolderNotFound = New("folder not found")

	// ErrEntityNotFound indicates the requested entity does not exist or is deleted
	ErrEntityNotFound = New("entity not found")

	// ErrTemplateNotFound indicates the requested attribute template does not exist
	ErrTemplateNotFound = New("attribute template not found")

	// ErrValueNotFound indicates the requested attribute value does not exist
	ErrValueNotFound = New("attribute value not found")

	// ErrInvalidAttributeValue indicates a write that does not satisfy the
	// owning template's declared type. The stored value is left unchanged.
	ErrInvalidAttributeValue = New("invalid attribute value")

	// ErrSlugCollision indicates deterministic slug disambiguation was exhausted.
	// This is an internal-invariant violation and should not occur in practice.
	ErrSlugCollision = New("slug collision unresolved")

	// ErrNodeNotFound indicates the requested graph node does not exist
	ErrNodeNotFound = New("graph node not found")

	// ErrRelationNotFound indicates the requested relation does not exist
	ErrRelationNotFound = New("relation not found")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return err != nil && IsAny(err,
		ErrFolderNotFound, ErrEntityNotFound, ErrTemplateNotFound, ErrValueNotFound,
		ErrNodeNotFound, ErrRelationNotFound)
}

// IsInvalidAttributeValue reports whether err is or wraps ErrInvalidAttributeValue
func IsInvalidAttributeValue(err error) bool {
	return err != nil && Is(err, ErrInvalidAttributeValue)
}

// IsStorageUnavailable reports whether err is or wraps ErrStorageUnavailable
func IsStorageUnavailable(err error) bool {
	return err != nil && Is(err, ErrStorageUnavailable)
}

// NewNotFoundf wraps a not-found sentinel with a formatted message
func NewNotFoundf(sentinel error, format string, args ...interface{}) error {
	return Wrap(sentinel, Newf(format, args...).Error())
}

// NewInvalidValuef creates an invalid-attribute-value error with a formatted message
func NewInvalidValuef(format string, args ...interface{}) error {
	return Wrap(ErrInvalidAttributeValue, Newf(format, args...).Error())
}
