package pattern

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// MutatorFunc is a structured field-level write hook.
type MutatorFunc func(e *Entity, field string, value any) error

// AccessorFunc is a structured field-level read hook.
type AccessorFunc func(e *Entity, field string) (any, error)

// EntityTypeOption configures an EntityType.
type EntityTypeOption func(*entityTypeConfig)

type entityTypeConfig struct {
	validator   SchemaValidator
	differ      Differ
	ids         IdentityGenerator
	mutator     MutatorFunc
	accessor    AccessorFunc
	historyOpts []HistoryOption
}

// WithSchemaValidator sets the validator. Defaults to DefaultSchemaRegistry.
func WithSchemaValidator(v SchemaValidator) EntityTypeOption {
	return func(c *entityTypeConfig) {
		c.validator = v
	}
}

// WithEntityDiffer sets the differ used by entities of this type.
func WithEntityDiffer(d Differ) EntityTypeOption {
	return func(c *entityTypeConfig) {
		c.differ = d
	}
}

// WithEntityIdentity sets the identity generator used by entities of this type.
func WithEntityIdentity(g IdentityGenerator) EntityTypeOption {
	return func(c *entityTypeConfig) {
		c.ids = g
	}
}

// WithMutator installs a field write hook.
func WithMutator(fn MutatorFunc) EntityTypeOption {
	return func(c *entityTypeConfig) {
		c.mutator = fn
	}
}

// WithAccessor installs a field read hook.
func WithAccessor(fn AccessorFunc) EntityTypeOption {
	return func(c *entityTypeConfig) {
		c.accessor = fn
	}
}

// WithEntityHistory passes options to every entity's command history.
func WithEntityHistory(opts ...HistoryOption) EntityTypeOption {
	return func(c *entityTypeConfig) {
		c.historyOpts = append(c.historyOpts, opts...)
	}
}

// EntityType describes a schema-aware entity type: its name, schema,
// operations and hooks. Create one per type and share it.
type EntityType[T any] struct {
	name     string
	schema   *jsonschema.Schema
	defaults Document
	table    *OperationTable[T]
	cfg      entityTypeConfig
}

// NewEntityType registers schema under name and precomputes its defaults.
func NewEntityType[T any](name string, schema *jsonschema.Schema, table *OperationTable[T], opts ...EntityTypeOption) (*EntityType[T], error) {
	if name == "" {
		return nil, fmt.Errorf("pattern: entity type name is required")
	}
	if table == nil {
		return nil, fmt.Errorf("pattern: entity type %q has no operation table", name)
	}

	cfg := entityTypeConfig{
		validator: DefaultSchemaRegistry,
		differ:    JSONDiffer{},
		ids:       UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	defaults, err := SchemaDefaults(schema)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		if err := cfg.validator.AddSchema(name, schema); err != nil {
			return nil, err
		}
	}

	return &EntityType[T]{
		name:     name,
		schema:   schema,
		defaults: defaults,
		table:    table,
		cfg:      cfg,
	}, nil
}

// MustEntityType is like NewEntityType but panics on error.
func MustEntityType[T any](name string, schema *jsonschema.Schema, table *OperationTable[T], opts ...EntityTypeOption) *EntityType[T] {
	et, err := NewEntityType(name, schema, table, opts...)
	if err != nil {
		panic(err)
	}
	return et
}

// Name returns the type name.
func (t *EntityType[T]) Name() string {
	return t.name
}

// Schema returns the type schema.
func (t *EntityType[T]) Schema() *jsonschema.Schema {
	return t.schema
}

// Defaults returns a copy of the schema defaults.
func (t *EntityType[T]) Defaults() Document {
	return cloneDocument(t.defaults)
}

// Operations returns the operation table.
func (t *EntityType[T]) Operations() *OperationTable[T] {
	return t.table
}

// Init wires e as an entity of this type with self as the operation target.
// Supplied data wins over schema defaults.
func (t *EntityType[T]) Init(e *Entity, self T, data Document) {
	e.typeName = t.name
	e.schema = t.schema
	e.validator = t.cfg.validator
	e.mutator = t.cfg.mutator
	e.accessor = t.cfg.accessor

	e.Configure(WithIdentityGenerator(t.cfg.ids), WithDiffer(t.cfg.differ))
	e.SetType(t.name)
	e.EventSourced.Init(NewSnapshot(MergeDefaults(t.defaults, data)), nil)

	dispatcher := t.table.Bind(self)
	e.Bind(dispatcher)
	e.commands = NewCommandHistory(&entityDispatcher{inner: dispatcher, entity: e}, t.cfg.historyOpts...)
}

// Entity is an EventSourced with a schema, a validator and its own command
// history. Every command executed through the history is sourced as an
// event before it runs.
type Entity struct {
	EventSourced

	typeName  string
	schema    *jsonschema.Schema
	validator SchemaValidator
	commands  *CommandHistory
	mutator   MutatorFunc
	accessor  AccessorFunc
	observers []func(operation string, args Args)
}

// entityDispatcher sources every invocation as an event before it runs and
// withdraws the event again if the invocation fails, so the event log only
// ever holds replayable operations.
type entityDispatcher struct {
	inner   Dispatcher
	entity  *Entity
	pending []logMark
}

// logMark is the event log position taken before an invocation.
type logMark struct {
	events  int
	version int64
	data    Document
}

func (d *entityDispatcher) Resolve(name string) (Operation, bool) {
	return d.inner.Resolve(name)
}

func (d *entityDispatcher) ObserveExecute(operation string, args Args) {
	d.pending = append(d.pending, logMark{
		events:  len(d.entity.events),
		version: d.entity.version,
		data:    cloneDocument(d.entity.data),
	})
	d.entity.Push(operation, args...)
	for _, fn := range d.entity.observers {
		fn(operation, args)
	}
}

func (d *entityDispatcher) ObserveResult(_ string, _ Args, err error) {
	if len(d.pending) == 0 {
		return
	}
	mark := d.pending[len(d.pending)-1]
	d.pending = d.pending[:len(d.pending)-1]
	if err != nil {
		d.entity.discardFrom(mark.events, mark.version, mark.data)
	}
}

// Commands returns the entity's command history.
func (e *Entity) Commands() *CommandHistory {
	return e.commands
}

// OnExecute registers a listener called for every command invocation,
// including undo and redo.
func (e *Entity) OnExecute(fn func(operation string, args Args)) {
	if fn != nil {
		e.observers = append(e.observers, fn)
	}
}

// Execute runs a command on the entity and records it.
func (e *Entity) Execute(ctx context.Context, operation string, args Args, opts ...CommandOption) (any, error) {
	if e.commands == nil {
		return nil, ErrNilEntity
	}
	return e.commands.Execute(ctx, operation, args, opts...)
}

// Undo reverts the last done command.
func (e *Entity) Undo(ctx context.Context) (any, error) {
	if e.commands == nil {
		return nil, ErrNilEntity
	}
	return e.commands.Undo(ctx)
}

// Redo re-applies the last undone command.
func (e *Entity) Redo(ctx context.Context) (any, error) {
	if e.commands == nil {
		return nil, ErrNilEntity
	}
	return e.commands.Redo(ctx)
}

// Schema returns the entity schema.
func (e *Entity) Schema() *jsonschema.Schema {
	return e.schema
}

// Validate checks the working data against the entity schema.
func (e *Entity) Validate() error {
	if e.validator == nil {
		return NewValidationError(e.typeName, fmt.Errorf("no validator configured"))
	}
	return e.validator.Validate(e.typeName, e.Data())
}

// IsValid reports whether the working data satisfies the entity schema.
func (e *Entity) IsValid() bool {
	if e.validator == nil {
		return false
	}
	return e.validator.IsValid(e.typeName, e.Data())
}

// Mutate writes field through the type's mutator hook.
func (e *Entity) Mutate(field string, value any) error {
	if e.mutator == nil {
		return NewMutatorError(e.typeName, field)
	}
	return e.mutator(e, field, value)
}

// Access reads field through the type's accessor hook.
func (e *Entity) Access(field string) (any, error) {
	if e.accessor == nil {
		return nil, NewAccessorError(e.typeName, field)
	}
	return e.accessor(e, field)
}
