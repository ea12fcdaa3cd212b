package adapters

import (
	"fmt"
)

// Version constants for optimistic concurrency control.
const (
	// AnyVersion skips version checking.
	AnyVersion int64 = -1

	// NoSnapshot requires that nothing is stored for the identity yet.
	NoSnapshot int64 = 0
)

// ConflictError provides details about a version conflict.
type ConflictError struct {
	Identity        string
	ExpectedVersion int64
	ActualVersion   int64
}

// NewConflictError creates a new ConflictError.
func NewConflictError(identity string, expected, actual int64) *ConflictError {
	return &ConflictError{
		Identity:        identity,
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("pattern: version conflict on %q: expected version %d, got %d",
		e.Identity, e.ExpectedVersion, e.ActualVersion)
}

// Is implements errors.Is compatibility.
// Returns true when compared with ErrVersionConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// NotFoundError provides details about a missing snapshot.
// Version is zero when the identity has no records at all.
type NotFoundError struct {
	Identity string
	Version  int64
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(identity string, version int64) *NotFoundError {
	return &NotFoundError{Identity: identity, Version: version}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("pattern: snapshot %q at version %d not found", e.Identity, e.Version)
	}
	return fmt.Sprintf("pattern: snapshot %q not found", e.Identity)
}

// Is implements errors.Is compatibility.
// Returns true when compared with ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CheckVersion validates the expected version against the latest stored
// version. This implements the optimistic concurrency control logic shared
// by all adapters.
func CheckVersion(identity string, expected, current int64) error {
	switch {
	case expected == AnyVersion:
		return nil
	case expected < 0:
		return ErrInvalidVersion
	case current != expected:
		return NewConflictError(identity, expected, current)
	default:
		return nil
	}
}

// ValidateRecord checks the fields every adapter requires before Save.
func ValidateRecord(record SnapshotRecord) error {
	if record.Identity == "" {
		return ErrEmptyIdentity
	}
	if record.Version <= 0 {
		return ErrInvalidVersion
	}
	return nil
}

// CopyRecord returns a copy of record that does not share its Data buffer.
func CopyRecord(record SnapshotRecord) SnapshotRecord {
	out := record
	if record.Data != nil {
		out.Data = make([]byte, len(record.Data))
		copy(out.Data, record.Data)
	}
	return out
}
