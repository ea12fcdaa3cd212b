package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// MockStore is a mock implementation of adapters.SnapshotStore for testing.
// Records are kept in memory without version checks; set an Err field to
// make the matching method fail.
type MockStore struct {
	SaveErr    error
	LatestErr  error
	AtErr      error
	HistoryErr error
	DeleteErr  error
	CloseErr   error
	PingErr    error

	mu      sync.Mutex
	Records []adapters.SnapshotRecord
	Calls   []string
}

// Save implements adapters.SnapshotStore.
func (m *MockStore) Save(ctx context.Context, record adapters.SnapshotRecord, expectedVersion int64) error {
	m.record("Save")
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	m.Records = append(m.Records, adapters.CopyRecord(record))
	return nil
}

// Latest implements adapters.SnapshotStore.
func (m *MockStore) Latest(ctx context.Context, identity string) (*adapters.SnapshotRecord, error) {
	m.record("Latest")
	if m.LatestErr != nil {
		return nil, m.LatestErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Records) - 1; i >= 0; i-- {
		if m.Records[i].Identity == identity {
			record := adapters.CopyRecord(m.Records[i])
			return &record, nil
		}
	}
	return nil, adapters.NewNotFoundError(identity, 0)
}

// At implements adapters.SnapshotStore.
func (m *MockStore) At(ctx context.Context, identity string, version int64) (*adapters.SnapshotRecord, error) {
	m.record("At")
	if m.AtErr != nil {
		return nil, m.AtErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.Identity == identity && r.Version == version {
			record := adapters.CopyRecord(r)
			return &record, nil
		}
	}
	return nil, adapters.NewNotFoundError(identity, version)
}

// History implements adapters.SnapshotStore.
func (m *MockStore) History(ctx context.Context, identity string) ([]adapters.SnapshotRecord, error) {
	m.record("History")
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapters.SnapshotRecord, 0)
	for _, r := range m.Records {
		if r.Identity == identity {
			out = append(out, adapters.CopyRecord(r))
		}
	}
	return out, nil
}

// Delete implements adapters.SnapshotStore.
func (m *MockStore) Delete(ctx context.Context, identity string) error {
	m.record("Delete")
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Records[:0]
	for _, r := range m.Records {
		if r.Identity != identity {
			kept = append(kept, r)
		}
	}
	m.Records = kept
	return nil
}

// Initialize implements adapters.Migrator.
func (m *MockStore) Initialize(ctx context.Context) error {
	m.record("Initialize")
	return nil
}

// Ping implements adapters.HealthChecker.
func (m *MockStore) Ping(ctx context.Context) error {
	m.record("Ping")
	return m.PingErr
}

// Close implements adapters.SnapshotStore.
func (m *MockStore) Close() error {
	m.record("Close")
	return m.CloseErr
}

// CallCount returns how many times method was called.
func (m *MockStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockStore) record(method string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, method)
	m.mu.Unlock()
}

var (
	_ adapters.SnapshotStore = (*MockStore)(nil)
	_ adapters.Migrator      = (*MockStore)(nil)
	_ adapters.HealthChecker = (*MockStore)(nil)
)
