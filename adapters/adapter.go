// Package adapters provides interfaces for snapshot store backends.
package adapters

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for adapter implementations.
// Adapters should return these (or errors that match via errors.Is)
// to enable consistent error handling across different backends.
var (
	// ErrVersionConflict is returned when an optimistic concurrency check fails.
	ErrVersionConflict = errors.New("pattern: version conflict")

	// ErrNotFound is returned when no snapshot is stored for an identity or version.
	ErrNotFound = errors.New("pattern: snapshot not found")

	// ErrEmptyIdentity is returned when an empty identity is provided.
	ErrEmptyIdentity = errors.New("pattern: identity is required")

	// ErrInvalidVersion is returned when an invalid version is specified.
	ErrInvalidVersion = errors.New("pattern: invalid version")

	// ErrAdapterClosed is returned when operations are attempted on a closed adapter.
	ErrAdapterClosed = errors.New("pattern: adapter is closed")
)

// SnapshotRecord is a serialized entity record stored at one version.
type SnapshotRecord struct {
	// Identity is the entity identity.
	Identity string

	// EntityType is the entity type name.
	EntityType string

	// Version is the entity version the record was built at.
	Version int64

	// Data is the serialized record payload.
	Data []byte

	// CreatedAt is when the record was stored.
	CreatedAt time.Time
}

// SnapshotStore is the interface that storage backends must implement.
// Every Save adds a new record; earlier versions stay readable.
type SnapshotStore interface {
	// Save stores record. expectedVersion is the latest stored version the
	// caller built on (NoSnapshot for a new entity, AnyVersion to skip the
	// check). Returns an error matching ErrVersionConflict on mismatch.
	Save(ctx context.Context, record SnapshotRecord, expectedVersion int64) error

	// Latest returns the highest-version record for identity.
	Latest(ctx context.Context, identity string) (*SnapshotRecord, error)

	// At returns the record stored at exactly version.
	At(ctx context.Context, identity string, version int64) (*SnapshotRecord, error)

	// History returns every record for identity in ascending version order.
	// Returns an empty slice if none exist.
	History(ctx context.Context, identity string) ([]SnapshotRecord, error)

	// Delete removes every record for identity.
	Delete(ctx context.Context, identity string) error

	// Close releases any resources held by the adapter.
	Close() error
}

// Migrator is implemented by adapters that need schema setup.
type Migrator interface {
	// Initialize creates the required tables if they do not exist.
	Initialize(ctx context.Context) error
}

// HealthChecker provides health check capability.
type HealthChecker interface {
	// Ping checks the connection to the backend.
	Ping(ctx context.Context) error
}
