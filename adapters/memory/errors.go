package memory

import (
	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Sentinel errors for the memory adapter.
// These are aliases to the adapters package errors for compatibility with errors.Is().
var (
	// ErrAdapterClosed is returned when an operation is attempted on a closed adapter.
	ErrAdapterClosed = adapters.ErrAdapterClosed

	// ErrEmptyIdentity is returned when an empty identity is provided.
	ErrEmptyIdentity = adapters.ErrEmptyIdentity

	// ErrVersionConflict is returned when optimistic concurrency check fails.
	ErrVersionConflict = adapters.ErrVersionConflict

	// ErrNotFound is returned when no snapshot is stored.
	ErrNotFound = adapters.ErrNotFound

	// ErrInvalidVersion is returned when an invalid version is specified.
	ErrInvalidVersion = adapters.ErrInvalidVersion
)

// ConflictError is an alias for adapters.ConflictError.
type ConflictError = adapters.ConflictError
