package pattern

import (
	"context"
	"fmt"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Repository persists entities as a series of snapshot records, one per save.
type Repository struct {
	store      adapters.SnapshotStore
	serializer Serializer
	logger     Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithSerializer sets a custom serializer.
func WithSerializer(s Serializer) RepositoryOption {
	return func(r *Repository) {
		r.serializer = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(l Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = loggerOrNop(l)
	}
}

// NewRepository creates a Repository over store.
func NewRepository(store adapters.SnapshotStore, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:      store,
		serializer: NewJSONSerializer(),
		logger:     NopLogger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Store returns the underlying snapshot store.
func (r *Repository) Store() adapters.SnapshotStore {
	return r.store
}

// Serializer returns the repository's serializer.
func (r *Repository) Serializer() Serializer {
	return r.serializer
}

// Save builds a snapshot of entity and stores it. Entities without pending
// events are left untouched and nothing is written.
//
// The snapshot is built before the write, so after a failed Save the entity
// no longer holds its pending events; reload it before retrying.
func (r *Repository) Save(ctx context.Context, entity Sourced) (Record, error) {
	if entity == nil {
		return Record{}, ErrNilEntity
	}

	pending := len(entity.Events())
	if pending == 0 {
		r.logger.Debug("Nothing to save", "identity", entity.Identity())
		return Record{}, nil
	}
	expectedVersion := entity.Version() - int64(pending)

	record, err := entity.BuildSnapshot()
	if err != nil {
		return Record{}, fmt.Errorf("pattern: failed to build snapshot: %w", err)
	}

	data, err := r.serializer.Serialize(record)
	if err != nil {
		return Record{}, err
	}

	if err := r.store.Save(ctx, adapters.SnapshotRecord{
		Identity:   record.Identity,
		EntityType: record.Type,
		Version:    record.Version,
		Data:       data,
	}, expectedVersion); err != nil {
		r.logger.Error("Failed to save snapshot",
			"identity", record.Identity,
			"version", record.Version,
			"error", err,
		)
		return Record{}, err
	}

	r.logger.Info("Snapshot saved",
		"identity", record.Identity,
		"type", record.Type,
		"version", record.Version,
		"events", len(record.Events),
	)
	return record, nil
}

// Load restores into from the latest stored snapshot of identity.
func (r *Repository) Load(ctx context.Context, identity string, into Sourced) error {
	if into == nil {
		return ErrNilEntity
	}

	stored, err := r.store.Latest(ctx, identity)
	if err != nil {
		return err
	}
	return r.restore(*stored, into)
}

// LoadVersion restores into from the snapshot stored at version.
func (r *Repository) LoadVersion(ctx context.Context, identity string, version int64, into Sourced) error {
	if into == nil {
		return ErrNilEntity
	}

	stored, err := r.store.At(ctx, identity, version)
	if err != nil {
		return err
	}
	return r.restore(*stored, into)
}

func (r *Repository) restore(stored adapters.SnapshotRecord, into Sourced) error {
	record, err := r.decode(stored, into)
	if err != nil {
		return err
	}
	into.Init(record.SnapshotValue(), nil)
	return nil
}

// History returns every stored record of identity in version order.
func (r *Repository) History(ctx context.Context, identity string) ([]Record, error) {
	stored, err := r.store.History(ctx, identity)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(stored))
	for _, s := range stored {
		record, err := r.serializer.Deserialize(s.Data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Rebuild reconstructs into from its initial state by replaying every event
// ever stored for identity, instead of trusting the latest snapshot.
//
// into must be freshly constructed (its data is the starting point). The
// stored events must be contiguous and start right after into's version.
func (r *Repository) Rebuild(ctx context.Context, identity string, into Sourced) error {
	if into == nil {
		return ErrNilEntity
	}

	records, err := r.History(ctx, identity)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return adapters.NewNotFoundError(identity, 0)
	}

	base := into.Snapshot()
	var events []Event
	expected := base.Version() + 1
	for _, record := range records {
		for _, event := range record.Events {
			if event.Version != expected {
				return NewEventGapError(expected, event.Version)
			}
			events = append(events, event)
			expected++
		}
	}

	into.Init(SnapshotOf(base.Version(), identity, base.Fields()), events)
	if err := into.Replay(ctx); err != nil {
		return err
	}

	// Fold the replayed events so the entity looks freshly loaded.
	if _, err := into.BuildSnapshot(); err != nil {
		return fmt.Errorf("pattern: failed to build snapshot: %w", err)
	}

	r.logger.Debug("Entity rebuilt",
		"identity", identity,
		"records", len(records),
		"events", len(events),
		"version", into.Version(),
	)
	return nil
}

func (r *Repository) decode(stored adapters.SnapshotRecord, into Sourced) (Record, error) {
	record, err := r.serializer.Deserialize(stored.Data)
	if err != nil {
		return Record{}, err
	}
	if t := into.Type(); t != "" && record.Type != "" && record.Type != t {
		return Record{}, fmt.Errorf("pattern: record %q has type %q, want %q", stored.Identity, record.Type, t)
	}
	return record, nil
}
