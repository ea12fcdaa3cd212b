package pattern

import (
	"context"
	"errors"
	"time"
)

// Sourced is implemented by anything embedding EventSourced.
type Sourced interface {
	Init(snapshot Snapshot, events []Event)
	BuildSnapshot() (Record, error)
	Replay(ctx context.Context) error
	Identity() string
	Version() int64
	Type() string
	Snapshot() Snapshot
	Events() []Event
}

var errNoDispatcher = errors.New("no dispatcher bound")

// SourcingOption configures an EventSourced.
type SourcingOption func(*EventSourced)

// WithIdentityGenerator sets the generator used for fresh identities.
func WithIdentityGenerator(g IdentityGenerator) SourcingOption {
	return func(es *EventSourced) {
		es.ids = g
	}
}

// WithDiffer sets the structural differ used for patches.
func WithDiffer(d Differ) SourcingOption {
	return func(es *EventSourced) {
		es.differ = d
	}
}

// WithSourcingClock overrides the clock used for event timestamps.
func WithSourcingClock(now func() time.Time) SourcingOption {
	return func(es *EventSourced) {
		es.now = now
	}
}

// EventSourced keeps an immutable versioned snapshot, the ordered events
// applied since that snapshot and the working data derived from both.
//
// Embed it in a domain type, Bind the type's operations and call Init before
// use. Outside an in-progress replay, Version() == Snapshot().Version() +
// len(Events()). EventSourced is not safe for concurrent use.
type EventSourced struct {
	snapshot   Snapshot
	events     []Event
	version    int64
	data       Document
	replaying  bool
	entityType string
	dispatcher Dispatcher
	listeners  []func(Event)

	ids    IdentityGenerator
	differ Differ
	now    func() time.Time
}

// NewEventSourced creates an initialised EventSourced.
func NewEventSourced(snapshot Snapshot, events []Event, opts ...SourcingOption) *EventSourced {
	es := &EventSourced{}
	es.Configure(opts...)
	es.Init(snapshot, events)
	return es
}

// Configure applies options. Call it before Init.
func (es *EventSourced) Configure(opts ...SourcingOption) {
	for _, opt := range opts {
		opt(es)
	}
}

// Bind sets the dispatcher used to resolve events on replay.
func (es *EventSourced) Bind(d Dispatcher) {
	es.dispatcher = d
}

// SetType records the entity type name carried in built records.
func (es *EventSourced) SetType(name string) {
	es.entityType = name
}

// Type returns the entity type name.
func (es *EventSourced) Type() string {
	return es.entityType
}

// OnPushed registers a listener called after every appended event.
func (es *EventSourced) OnPushed(fn func(Event)) {
	if fn != nil {
		es.listeners = append(es.listeners, fn)
	}
}

// Init resets the entity to snapshot followed by events. Events are kept
// but not applied; call Replay to apply them.
func (es *EventSourced) Init(snapshot Snapshot, events []Event) {
	es.events = make([]Event, len(events))
	copy(es.events, events)
	es.setSnapshot(snapshot)
	es.data = es.snapshot.Fields()
}

func (es *EventSourced) setSnapshot(s Snapshot) {
	version := es.version
	if s.versioned {
		version = s.version
	}

	identity := s.identity
	if identity == "" {
		identity = es.snapshot.identity
	}
	if identity == "" {
		identity = es.identities().NewIdentity()
	}

	es.snapshot = Snapshot{
		version:   version,
		identity:  identity,
		fields:    s.fields,
		versioned: true,
	}
	if es.snapshot.fields == nil {
		es.snapshot.fields = Document{}
	}
	es.version = version
}

// Push appends an event for operation. It is a no-op while replaying, so
// operations may push unconditionally.
func (es *EventSourced) Push(operation string, args ...any) {
	if es.replaying {
		return
	}
	es.version++
	event := Event{
		Operation: operation,
		Args:      Args(args).Clone(),
		Timestamp: es.clock()(),
		Version:   es.version,
	}
	es.events = append(es.events, event)
	for _, fn := range es.listeners {
		fn(event)
	}
}

// discardFrom drops the events logged after the first n and puts version
// and working data back. Listeners already told about those events are not
// told again.
func (es *EventSourced) discardFrom(n int, version int64, data Document) {
	if n < 0 || n >= len(es.events) {
		return
	}
	es.events = es.events[:n:n]
	es.version = version
	es.data = data
}

// BuildSnapshot folds the working data into a new snapshot at the current
// version and clears the event log. The returned record carries the events
// consumed and the patch against the previous snapshot.
func (es *EventSourced) BuildSnapshot() (Record, error) {
	patch, err := es.diff().Diff(es.snapshot.fields, es.data)
	if err != nil {
		return Record{}, err
	}

	events := es.events
	if events == nil {
		events = []Event{}
	}

	es.setSnapshot(SnapshotOf(es.version, "", es.data))
	es.events = []Event{}

	return Record{
		Version:  es.snapshot.version,
		Identity: es.snapshot.identity,
		Type:     es.entityType,
		Snapshot: es.snapshot.Fields(),
		Events:   events,
		Patch:    patch,
	}, nil
}

// Replay rebuilds the working data from the snapshot by applying every
// logged event in order. Each event completes before the next starts.
//
// On error the entity is left partially rebuilt and still marked as
// replaying; discard it and rebuild from the stored snapshot and events.
func (es *EventSourced) Replay(ctx context.Context) error {
	es.replaying = true
	es.Init(es.snapshot, es.events)

	if es.dispatcher == nil && len(es.events) > 0 {
		return NewReplayError(es.events[0].Operation, es.events[0].Version, errNoDispatcher)
	}

	for _, event := range es.events {
		if err := ctx.Err(); err != nil {
			return NewReplayError(event.Operation, event.Version, err)
		}
		op, ok := es.dispatcher.Resolve(event.Operation)
		if !ok {
			return NewReplayError(event.Operation, event.Version, nil)
		}
		if _, err := op.Invoke(ctx, event.Args); err != nil {
			return NewReplayError(event.Operation, event.Version, err)
		}
		// The stored version is trusted as-is.
		es.version = event.Version
	}

	es.replaying = false
	return nil
}

// Replaying reports whether a replay is in progress (or aborted).
func (es *EventSourced) Replaying() bool {
	return es.replaying
}

// Version returns the current version.
func (es *EventSourced) Version() int64 {
	return es.version
}

// Identity returns the entity identity.
func (es *EventSourced) Identity() string {
	return es.snapshot.identity
}

// Snapshot returns the current snapshot.
func (es *EventSourced) Snapshot() Snapshot {
	return es.snapshot
}

// Events returns a copy of the events logged since the snapshot.
func (es *EventSourced) Events() []Event {
	out := make([]Event, len(es.events))
	copy(out, es.events)
	return out
}

// Data returns the live working data. Operations mutate it directly.
func (es *EventSourced) Data() Document {
	if es.data == nil {
		es.data = Document{}
	}
	return es.data
}

// Get returns a working data field.
func (es *EventSourced) Get(field string) any {
	return es.data[field]
}

// Set writes a working data field.
func (es *EventSourced) Set(field string, value any) {
	es.Data()[field] = value
}

// Representation returns {_version, _uuid, ...data}.
func (es *EventSourced) Representation() Document {
	doc := cloneDocument(es.data)
	doc[VersionKey] = es.version
	doc[IdentityKey] = es.snapshot.identity
	return doc
}

// PatchAgainst returns the diff from reference to the current representation.
func (es *EventSourced) PatchAgainst(reference Snapshot) (Patch, error) {
	return es.diff().Diff(reference.Representation(), es.Representation())
}

// PatchAgainstSnapshot returns the diff from the current snapshot to the
// current representation.
func (es *EventSourced) PatchAgainstSnapshot() (Patch, error) {
	return es.PatchAgainst(es.snapshot)
}

func (es *EventSourced) identities() IdentityGenerator {
	if es.ids == nil {
		es.ids = UUIDGenerator{}
	}
	return es.ids
}

func (es *EventSourced) diff() Differ {
	if es.differ == nil {
		es.differ = JSONDiffer{}
	}
	return es.differ
}

func (es *EventSourced) clock() func() time.Time {
	if es.now == nil {
		es.now = time.Now
	}
	return es.now
}
