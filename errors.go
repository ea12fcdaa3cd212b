package pattern

import (
	"errors"
	"fmt"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
var (
	// ErrConfiguration indicates a command was built against an operation that
	// cannot be resolved or with an argument list of the wrong shape.
	ErrConfiguration = errors.New("pattern: invalid command configuration")

	// ErrUndo indicates Undo was called on a command without an undo operation.
	ErrUndo = errors.New("pattern: command is not undoable")

	// ErrReplay indicates replay aborted. The entity must be discarded.
	ErrReplay = errors.New("pattern: replay failed")

	// ErrMutator indicates Mutate was called on an entity type without a mutator hook.
	ErrMutator = errors.New("pattern: mutator not implemented")

	// ErrAccessor indicates Access was called on an entity type without an accessor hook.
	ErrAccessor = errors.New("pattern: accessor not implemented")

	// ErrPanicked indicates an operation panicked while being invoked.
	ErrPanicked = errors.New("pattern: operation panicked")

	// ErrNilEntity indicates a nil entity was passed.
	ErrNilEntity = errors.New("pattern: nil entity")

	// ErrSnapshotNotFound indicates no snapshot is stored for an identity.
	// Alias of the adapters error so either can be matched.
	ErrSnapshotNotFound = adapters.ErrNotFound

	// ErrVersionConflict indicates an optimistic concurrency violation on save.
	ErrVersionConflict = adapters.ErrVersionConflict

	// ErrSerializationFailed indicates record serialization/deserialization failed.
	ErrSerializationFailed = errors.New("pattern: serialization failed")

	// ErrInvalidSchema indicates a schema could not be resolved.
	ErrInvalidSchema = errors.New("pattern: invalid schema")

	// ErrValidationFailed indicates entity data does not satisfy its schema.
	ErrValidationFailed = errors.New("pattern: validation failed")

	// ErrEventGap indicates stored events are not contiguous.
	ErrEventGap = errors.New("pattern: event sequence gap")
)

// ConfigurationError provides detailed information about an invalid command.
type ConfigurationError struct {
	Operation string
	Reason    string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("pattern: invalid command for operation %q: %s", e.Operation, e.Reason)
}

// Is reports whether this error matches the target error.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(operation, reason string) *ConfigurationError {
	return &ConfigurationError{Operation: operation, Reason: reason}
}

// UndoError is returned when undoing a command that has no undo operation.
type UndoError struct {
	Operation string
}

// Error returns the error message.
func (e *UndoError) Error() string {
	return fmt.Sprintf("pattern: command %q is not undoable", e.Operation)
}

// Is reports whether this error matches the target error.
func (e *UndoError) Is(target error) bool {
	return target == ErrUndo
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *UndoError) Unwrap() error {
	return ErrUndo
}

// NewUndoError creates a new UndoError.
func NewUndoError(operation string) *UndoError {
	return &UndoError{Operation: operation}
}

// ReplayError provides detailed information about an aborted replay.
// Cause is nil when the event's operation could not be resolved.
type ReplayError struct {
	Operation string
	Version   int64
	Cause     error
}

// Error returns the error message.
func (e *ReplayError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("pattern: replay of event %d failed: %s method not found", e.Version, e.Operation)
	}
	return fmt.Sprintf("pattern: replay of event %d (%s) failed: %v", e.Version, e.Operation, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *ReplayError) Is(target error) bool {
	return target == ErrReplay
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *ReplayError) Unwrap() error {
	if e.Cause == nil {
		return ErrReplay
	}
	return e.Cause
}

// NewReplayError creates a new ReplayError.
func NewReplayError(operation string, version int64, cause error) *ReplayError {
	return &ReplayError{Operation: operation, Version: version, Cause: cause}
}

// MutatorError is returned by Entity.Mutate when no mutator is configured.
type MutatorError struct {
	Type  string
	Field string
}

// Error returns the error message.
func (e *MutatorError) Error() string {
	return fmt.Sprintf("pattern: entity type %q has no mutator for field %q", e.Type, e.Field)
}

// Is reports whether this error matches the target error.
func (e *MutatorError) Is(target error) bool {
	return target == ErrMutator
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *MutatorError) Unwrap() error {
	return ErrMutator
}

// NewMutatorError creates a new MutatorError.
func NewMutatorError(entityType, field string) *MutatorError {
	return &MutatorError{Type: entityType, Field: field}
}

// AccessorError is returned by Entity.Access when no accessor is configured.
type AccessorError struct {
	Type  string
	Field string
}

// Error returns the error message.
func (e *AccessorError) Error() string {
	return fmt.Sprintf("pattern: entity type %q has no accessor for field %q", e.Type, e.Field)
}

// Is reports whether this error matches the target error.
func (e *AccessorError) Is(target error) bool {
	return target == ErrAccessor
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *AccessorError) Unwrap() error {
	return ErrAccessor
}

// NewAccessorError creates a new AccessorError.
func NewAccessorError(entityType, field string) *AccessorError {
	return &AccessorError{Type: entityType, Field: field}
}

// PanicError provides detailed information about an operation panic.
type PanicError struct {
	Operation string
	Value     interface{}
	Stack     string
}

// Error returns the error message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("pattern: operation %q panicked: %v", e.Operation, e.Value)
}

// Is reports whether this error matches the target error.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanicked
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *PanicError) Unwrap() error {
	return ErrPanicked
}

// NewPanicError creates a new PanicError.
func NewPanicError(operation string, value interface{}, stack string) *PanicError {
	return &PanicError{Operation: operation, Value: value, Stack: stack}
}

// ValidationError wraps a schema validation failure.
type ValidationError struct {
	Type  string
	Cause error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("pattern: %s failed validation: %v", e.Type, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(entityType string, cause error) *ValidationError {
	return &ValidationError{Type: entityType, Cause: cause}
}

// SerializationError provides detailed information about a serialization failure.
type SerializationError struct {
	Operation string // "serialize" or "deserialize"
	Cause     error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("pattern: failed to %s record: %v", e.Operation, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerializationFailed
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a new SerializationError.
func NewSerializationError(operation string, cause error) *SerializationError {
	return &SerializationError{Operation: operation, Cause: cause}
}

// EventGapError is returned when a rebuild finds non-contiguous event versions.
type EventGapError struct {
	Expected int64
	Actual   int64
}

// Error returns the error message.
func (e *EventGapError) Error() string {
	return fmt.Sprintf("pattern: event sequence gap: expected %d got %d", e.Expected, e.Actual)
}

// Is reports whether this error matches the target error.
func (e *EventGapError) Is(target error) bool {
	return target == ErrEventGap
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *EventGapError) Unwrap() error {
	return ErrEventGap
}

// NewEventGapError creates a new EventGapError.
func NewEventGapError(expected, actual int64) *EventGapError {
	return &EventGapError{Expected: expected, Actual: actual}
}
