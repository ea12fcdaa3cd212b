package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AshkanYarmoradi/go-pattern"
	"github.com/AshkanYarmoradi/go-pattern/adapters"
	"github.com/AshkanYarmoradi/go-pattern/adapters/memory"
	patterntest "github.com/AshkanYarmoradi/go-pattern/testing/testutil"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		tp.Shutdown(context.Background())
	})

	tracer := NewTracer(WithTracerProvider(tp), WithServiceName("test"))
	return tracer, exporter
}

func assertAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expected interface{}) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			assert.Equal(t, expected, attr.Value.AsInterface(), "attribute %s", key)
			return
		}
	}
	t.Errorf("attribute %s not found", key)
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	return names
}

// =============================================================================
// Tracer Tests
// =============================================================================

func TestNewTracer(t *testing.T) {
	t.Run("creates tracer with defaults", func(t *testing.T) {
		tracer := NewTracer()

		assert.NotNil(t, tracer)
		assert.Equal(t, DefaultServiceName, tracer.ServiceName())
		assert.NotNil(t, tracer.Tracer())
	})

	t.Run("with custom service name", func(t *testing.T) {
		tracer := NewTracer(WithServiceName("editor"))

		assert.Equal(t, "editor", tracer.ServiceName())
	})

	t.Run("with custom tracer provider", func(t *testing.T) {
		exporter := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer tp.Shutdown(context.Background())

		tracer := NewTracer(WithTracerProvider(tp))

		assert.NotNil(t, tracer.Tracer())
	})
}

func TestTracer_StartSpan(t *testing.T) {
	tracer, exporter := setupTestTracer(t)

	ctx, span := tracer.StartSpan(context.Background(), "test-span")
	span.End()

	assert.NotNil(t, ctx)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "test-span", spans[0].Name)
}

// =============================================================================
// Command Middleware Tests
// =============================================================================

func TestCommandMiddleware(t *testing.T) {
	ctx := context.Background()

	t.Run("traces execute undo and redo", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		c := &patterntest.Counter{}
		h := pattern.NewCommandHistory(patterntest.CounterOperations.Bind(c),
			pattern.WithHistoryMiddleware(CommandMiddleware(tracer)))

		_, err := h.Execute(ctx, "add", pattern.Args{5}, pattern.WithUndo("add", pattern.Args{-5}))
		require.NoError(t, err)
		_, err = h.Undo(ctx)
		require.NoError(t, err)
		_, err = h.Redo(ctx)
		require.NoError(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 3)
		assert.Equal(t, []string{"command.execute.add", "command.undo.add", "command.redo.add"}, spanNames(spans))
		for _, s := range spans {
			assert.Equal(t, codes.Ok, s.Status.Code)
			assert.Equal(t, trace.SpanKindInternal, s.SpanKind)
			assertAttribute(t, s.Attributes, "pattern.service", "test")
			assertAttribute(t, s.Attributes, "pattern.command.operation", "add")
			assertAttribute(t, s.Attributes, "pattern.command.args", int64(1))
		}
		assertAttribute(t, spans[1].Attributes, "pattern.command.kind", "undo")
		assert.Equal(t, 5, c.Sum())
	})

	t.Run("traces failed command with error", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		expectedErr := errors.New("command failed")

		handler := CommandMiddleware(tracer)(func(ctx context.Context, inv pattern.Invocation) (any, error) {
			return nil, expectedErr
		})

		_, err := handler(ctx, pattern.Invocation{Kind: pattern.KindExecute, Operation: "fail"})

		require.ErrorIs(t, err, expectedErr)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "command failed", spans[0].Status.Description)
		require.Len(t, spans[0].Events, 1)
	})

	t.Run("passes span context to the operation", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)

		handler := CommandMiddleware(tracer)(func(ctx context.Context, inv pattern.Invocation) (any, error) {
			AddEvent(ctx, "inside")
			SetAttributes(ctx, attribute.String("custom", "value"))
			return "ok", nil
		})

		result, err := handler(ctx, pattern.Invocation{Kind: pattern.KindExecute, Operation: "noop"})

		require.NoError(t, err)
		assert.Equal(t, "ok", result)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.Len(t, spans[0].Events, 1)
		assert.Equal(t, "inside", spans[0].Events[0].Name)
		assertAttribute(t, spans[0].Attributes, "custom", "value")
	})
}

// =============================================================================
// Replay Tests
// =============================================================================

func TestReplay(t *testing.T) {
	ctx := context.Background()

	t.Run("traces successful replay", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		account := patterntest.NewAccount("acc-1")
		require.NoError(t, account.Open("ann"))
		require.NoError(t, account.Deposit(100))

		require.NoError(t, Replay(ctx, tracer, account))

		assert.Equal(t, int64(100), account.Balance())

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "entity.replay", spans[0].Name)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
		assertAttribute(t, spans[0].Attributes, "pattern.entity.identity", "acc-1")
		assertAttribute(t, spans[0].Attributes, "pattern.entity.type", "Account")
		assertAttribute(t, spans[0].Attributes, "pattern.events.count", int64(2))
		assertAttribute(t, spans[0].Attributes, "pattern.entity.version", int64(2))
	})

	t.Run("traces failed replay", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		account := patterntest.NewAccount("acc-2")
		account.Init(account.Snapshot(), []pattern.Event{{Operation: "bogus", Version: 1}})

		err := Replay(ctx, tracer, account)

		require.ErrorIs(t, err, pattern.ErrReplay)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
	})
}

// =============================================================================
// Store Middleware Tests
// =============================================================================

func TestStoreMiddleware(t *testing.T) {
	ctx := context.Background()

	t.Run("traces repository round trip", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		store := NewStoreMiddleware(memory.NewAdapter(), tracer)
		repo := pattern.NewRepository(store)

		account := patterntest.NewAccount("acc-1")
		require.NoError(t, account.Open("ann"))
		_, err := repo.Save(ctx, account)
		require.NoError(t, err)

		loaded := patterntest.NewAccount("acc-1")
		require.NoError(t, repo.Load(ctx, "acc-1", loaded))
		_, err = repo.History(ctx, "acc-1")
		require.NoError(t, err)
		require.NoError(t, repo.LoadVersion(ctx, "acc-1", 1, loaded))
		require.NoError(t, store.Delete(ctx, "acc-1"))

		spans := exporter.GetSpans()
		assert.Equal(t, []string{"store.save", "store.latest", "store.history", "store.at", "store.delete"}, spanNames(spans))

		save := spans[0]
		assert.Equal(t, trace.SpanKindClient, save.SpanKind)
		assertAttribute(t, save.Attributes, "pattern.identity", "acc-1")
		assertAttribute(t, save.Attributes, "pattern.entity.type", "Account")
		assertAttribute(t, save.Attributes, "pattern.version", int64(1))
		assertAttribute(t, save.Attributes, "pattern.expected_version", int64(0))

		assertAttribute(t, spans[1].Attributes, "pattern.version", int64(1))
		assertAttribute(t, spans[2].Attributes, "pattern.records.count", int64(1))
	})

	t.Run("records store errors", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		store := NewStoreMiddleware(memory.NewAdapter(), tracer)

		_, err := store.Latest(ctx, "missing")

		require.ErrorIs(t, err, adapters.ErrNotFound)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
	})

	t.Run("initializes migrating stores", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		mock := &patterntest.MockStore{}
		store := NewStoreMiddleware(mock, tracer)

		require.NoError(t, store.Initialize(ctx))
		require.NoError(t, store.Close())

		assert.Equal(t, 1, mock.CallCount("Initialize"))
		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "store.initialize", spans[0].Name)
	})

	t.Run("save failure is recorded", func(t *testing.T) {
		tracer, exporter := setupTestTracer(t)
		mock := &patterntest.MockStore{SaveErr: errors.New("disk full")}
		store := NewStoreMiddleware(mock, tracer)

		err := store.Save(ctx, adapters.SnapshotRecord{Identity: "x", Version: 1}, 0)

		require.Error(t, err)
		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "disk full", spans[0].Status.Description)
	})
}

// =============================================================================
// Span Helper Tests
// =============================================================================

func TestSpanHelpers(t *testing.T) {
	tracer, exporter := setupTestTracer(t)

	ctx, span := tracer.StartSpan(context.Background(), "helpers")
	assert.Equal(t, span, SpanFromContext(ctx))
	SetError(ctx, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	// Helpers on a context without a span are no-ops.
	AddEvent(context.Background(), "nothing")
	SetAttributes(context.Background(), attribute.Int("n", 1))
}
