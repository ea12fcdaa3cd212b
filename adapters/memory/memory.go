// Package memory provides an in-memory implementation of the snapshot store adapter.
// This adapter is primarily intended for testing and development purposes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Version constants for optimistic concurrency control.
// These are re-exported from the adapters package for convenience.
const (
	AnyVersion = adapters.AnyVersion
	NoSnapshot = adapters.NoSnapshot
)

// Ensure MemoryAdapter implements all required interfaces.
var (
	_ adapters.SnapshotStore = (*MemoryAdapter)(nil)
	_ adapters.Migrator      = (*MemoryAdapter)(nil)
	_ adapters.HealthChecker = (*MemoryAdapter)(nil)
)

// MemoryAdapter is an in-memory implementation of SnapshotStore.
// It is thread-safe and suitable for unit testing.
type MemoryAdapter struct {
	mu      sync.RWMutex
	records map[string][]adapters.SnapshotRecord
	closed  bool
	now     func() time.Time
}

// Option configures a MemoryAdapter.
type Option func(*MemoryAdapter)

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *MemoryAdapter) {
		a.now = now
	}
}

// NewAdapter creates a new in-memory snapshot store adapter.
func NewAdapter(opts ...Option) *MemoryAdapter {
	adapter := &MemoryAdapter{
		records: make(map[string][]adapters.SnapshotRecord),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Initialize is a no-op for the memory adapter.
func (a *MemoryAdapter) Initialize(ctx context.Context) error {
	return nil
}

// Save stores record with optimistic concurrency control.
func (a *MemoryAdapter) Save(ctx context.Context, record adapters.SnapshotRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := adapters.ValidateRecord(record); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return adapters.ErrAdapterClosed
	}

	history := a.records[record.Identity]
	current := int64(0)
	if len(history) > 0 {
		current = history[len(history)-1].Version
	}

	if err := adapters.CheckVersion(record.Identity, expectedVersion, current); err != nil {
		return err
	}
	if record.Version <= current {
		return adapters.NewConflictError(record.Identity, record.Version, current)
	}

	stored := adapters.CopyRecord(record)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = a.now()
	}
	a.records[record.Identity] = append(history, stored)
	return nil
}

// Latest returns the highest-version record for identity.
func (a *MemoryAdapter) Latest(ctx context.Context, identity string) (*adapters.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == "" {
		return nil, adapters.ErrEmptyIdentity
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	history := a.records[identity]
	if len(history) == 0 {
		return nil, adapters.NewNotFoundError(identity, 0)
	}
	record := adapters.CopyRecord(history[len(history)-1])
	return &record, nil
}

// At returns the record stored at version.
func (a *MemoryAdapter) At(ctx context.Context, identity string, version int64) (*adapters.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == "" {
		return nil, adapters.ErrEmptyIdentity
	}
	if version <= 0 {
		return nil, adapters.ErrInvalidVersion
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	history := a.records[identity]
	i := sort.Search(len(history), func(i int) bool {
		return history[i].Version >= version
	})
	if i == len(history) || history[i].Version != version {
		return nil, adapters.NewNotFoundError(identity, version)
	}
	record := adapters.CopyRecord(history[i])
	return &record, nil
}

// History returns every record for identity in ascending version order.
func (a *MemoryAdapter) History(ctx context.Context, identity string) ([]adapters.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == "" {
		return nil, adapters.ErrEmptyIdentity
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	history := a.records[identity]
	out := make([]adapters.SnapshotRecord, 0, len(history))
	for _, record := range history {
		out = append(out, adapters.CopyRecord(record))
	}
	return out, nil
}

// Delete removes every record for identity.
func (a *MemoryAdapter) Delete(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identity == "" {
		return adapters.ErrEmptyIdentity
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return adapters.ErrAdapterClosed
	}

	delete(a.records, identity)
	return nil
}

// Close marks the adapter as closed.
func (a *MemoryAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	return nil
}

// Ping checks if the adapter is open.
func (a *MemoryAdapter) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return adapters.ErrAdapterClosed
	}

	return nil
}

// Reset clears all data. Useful for testing.
func (a *MemoryAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = make(map[string][]adapters.SnapshotRecord)
}

// RecordCount returns the total number of stored records.
func (a *MemoryAdapter) RecordCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, history := range a.records {
		n += len(history)
	}
	return n
}
