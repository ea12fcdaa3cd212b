// Package tracing provides OpenTelemetry integration for pattern.
//
// Basic usage with a command history:
//
//	tp := sdktrace.NewTracerProvider(...)
//	otel.SetTracerProvider(tp)
//
//	tracer := tracing.NewTracer()
//	history.Use(tracing.CommandMiddleware(tracer))
//	repo := pattern.NewRepository(tracing.NewStoreMiddleware(adapter, tracer))
//
// The tracing middleware captures:
//   - Invocation kind (execute, undo, redo), operation and argument count
//   - Success/failure status
//   - Error details when invocations fail
//   - Snapshot store calls with identity and version
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AshkanYarmoradi/go-pattern"
	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

const (
	// TracerName is the name of the pattern tracer.
	TracerName = "github.com/AshkanYarmoradi/go-pattern"

	// DefaultServiceName is the default service name for spans.
	DefaultServiceName = "pattern"
)

// Tracer wraps OpenTelemetry tracer for pattern operations.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider sets a custom TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(TracerName)
	}
}

// WithServiceName sets the service name for spans.
func WithServiceName(name string) TracerOption {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// NewTracer creates a new Tracer with the global TracerProvider.
func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer:      otel.Tracer(TracerName),
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// =============================================================================
// Command Middleware
// =============================================================================

// CommandMiddleware creates middleware that traces command invocations.
func CommandMiddleware(tracer *Tracer) pattern.Middleware {
	return func(next pattern.MiddlewareFunc) pattern.MiddlewareFunc {
		return func(ctx context.Context, inv pattern.Invocation) (any, error) {
			spanName := fmt.Sprintf("command.%s.%s", inv.Kind, inv.Operation)

			ctx, span := tracer.StartSpan(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			span.SetAttributes(
				attribute.String("pattern.service", tracer.serviceName),
				attribute.String("pattern.command.kind", string(inv.Kind)),
				attribute.String("pattern.command.operation", inv.Operation),
				attribute.Int("pattern.command.args", inv.Args.Len()),
			)

			result, err := next(ctx, inv)
			finish(span, err)
			return result, err
		}
	}
}

// Replay replays entity inside a span recording its identity and the
// number of events applied.
func Replay(ctx context.Context, tracer *Tracer, entity pattern.Sourced) error {
	ctx, span := tracer.StartSpan(ctx, "entity.replay",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("pattern.service", tracer.serviceName),
		attribute.String("pattern.entity.identity", entity.Identity()),
		attribute.String("pattern.entity.type", entity.Type()),
		attribute.Int64("pattern.snapshot.version", entity.Snapshot().Version()),
		attribute.Int("pattern.events.count", len(entity.Events())),
	)

	err := entity.Replay(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int64("pattern.entity.version", entity.Version()))
	}
	finish(span, err)
	return err
}

// =============================================================================
// Store Middleware
// =============================================================================

// StoreMiddleware wraps a SnapshotStore with tracing.
type StoreMiddleware struct {
	store  adapters.SnapshotStore
	tracer *Tracer
}

var _ adapters.SnapshotStore = (*StoreMiddleware)(nil)

// NewStoreMiddleware wraps a store with tracing.
func NewStoreMiddleware(store adapters.SnapshotStore, tracer *Tracer) *StoreMiddleware {
	return &StoreMiddleware{
		store:  store,
		tracer: tracer,
	}
}

func (m *StoreMiddleware) start(ctx context.Context, name, identity string) (context.Context, trace.Span) {
	ctx, span := m.tracer.StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("pattern.service", m.tracer.serviceName),
		attribute.String("pattern.identity", identity),
	)
	return ctx, span
}

// Save stores a record with tracing.
func (m *StoreMiddleware) Save(ctx context.Context, record adapters.SnapshotRecord, expectedVersion int64) error {
	ctx, span := m.start(ctx, "store.save", record.Identity)
	defer span.End()

	span.SetAttributes(
		attribute.String("pattern.entity.type", record.EntityType),
		attribute.Int64("pattern.version", record.Version),
		attribute.Int64("pattern.expected_version", expectedVersion),
		attribute.Int("pattern.record.bytes", len(record.Data)),
	)

	err := m.store.Save(ctx, record, expectedVersion)
	finish(span, err)
	return err
}

// Latest returns the latest record with tracing.
func (m *StoreMiddleware) Latest(ctx context.Context, identity string) (*adapters.SnapshotRecord, error) {
	ctx, span := m.start(ctx, "store.latest", identity)
	defer span.End()

	record, err := m.store.Latest(ctx, identity)
	if err == nil {
		span.SetAttributes(attribute.Int64("pattern.version", record.Version))
	}
	finish(span, err)
	return record, err
}

// At returns the record at version with tracing.
func (m *StoreMiddleware) At(ctx context.Context, identity string, version int64) (*adapters.SnapshotRecord, error) {
	ctx, span := m.start(ctx, "store.at", identity)
	defer span.End()

	span.SetAttributes(attribute.Int64("pattern.version", version))

	record, err := m.store.At(ctx, identity, version)
	finish(span, err)
	return record, err
}

// History returns every record with tracing.
func (m *StoreMiddleware) History(ctx context.Context, identity string) ([]adapters.SnapshotRecord, error) {
	ctx, span := m.start(ctx, "store.history", identity)
	defer span.End()

	records, err := m.store.History(ctx, identity)
	if err == nil {
		span.SetAttributes(attribute.Int("pattern.records.count", len(records)))
	}
	finish(span, err)
	return records, err
}

// Delete removes every record with tracing.
func (m *StoreMiddleware) Delete(ctx context.Context, identity string) error {
	ctx, span := m.start(ctx, "store.delete", identity)
	defer span.End()

	err := m.store.Delete(ctx, identity)
	finish(span, err)
	return err
}

// Initialize initializes the store with tracing if it supports migrations.
func (m *StoreMiddleware) Initialize(ctx context.Context) error {
	migrator, ok := m.store.(adapters.Migrator)
	if !ok {
		return nil
	}

	ctx, span := m.tracer.StartSpan(ctx, "store.initialize",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(attribute.String("pattern.service", m.tracer.serviceName))

	err := migrator.Initialize(ctx)
	finish(span, err)
	return err
}

// Close closes the store.
func (m *StoreMiddleware) Close() error {
	return m.store.Close()
}

// =============================================================================
// Span Helpers
// =============================================================================

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, opts...)
}

// SetError sets an error on the current span.
func SetError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
