// Package metrics provides Prometheus metrics integration for pattern.
//
// Basic usage:
//
//	m := metrics.New(metrics.WithMetricsServiceName("editor"))
//	m.MustRegister()
//
//	// Time every execute, undo and redo
//	history.Use(m.CommandMiddleware())
//
//	// Count sourced events
//	entity.OnPushed(m.EventListener())
//
//	// Instrument the snapshot store
//	repo := pattern.NewRepository(m.WrapStore(adapter))
//
// The metrics collected include:
//   - Command invocation counts, durations and in-flight gauges by kind
//   - Snapshot store operation counts and durations
//   - Snapshots saved per entity type and events pushed per operation
//   - Error counts by type
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AshkanYarmoradi/go-pattern"
	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Default metric labels.
const (
	LabelKind       = "kind"
	LabelOperation  = "operation"
	LabelEntityType = "entity_type"
	LabelStatus     = "status"
	LabelErrorType  = "error_type"
	LabelService    = "service"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Store operation values.
const (
	OperationSave    = "save"
	OperationLatest  = "latest"
	OperationAt      = "at"
	OperationHistory = "history"
	OperationDelete  = "delete"
)

// Metrics holds all Prometheus metrics for pattern.
type Metrics struct {
	namespace   string
	subsystem   string
	serviceName string

	// Command metrics
	commandsTotal    *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	commandsInFlight *prometheus.GaugeVec

	// Event metrics
	eventsPushedTotal *prometheus.CounterVec

	// Store metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	snapshotsSavedTotal    *prometheus.CounterVec

	// Error metrics
	errorsTotal *prometheus.CounterVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithNamespace sets the Prometheus namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		m.namespace = namespace
	}
}

// WithSubsystem sets the Prometheus subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(m *Metrics) {
		m.subsystem = subsystem
	}
}

// WithMetricsServiceName sets the service name label.
func WithMetricsServiceName(name string) MetricsOption {
	return func(m *Metrics) {
		m.serviceName = name
	}
}

// New creates a new Metrics instance with default settings.
func New(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		namespace:   "pattern",
		subsystem:   "",
		serviceName: "unknown",
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initMetrics()
	return m
}

func (m *Metrics) initMetrics() {
	m.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_total",
			Help:      "Total number of command invocations.",
		},
		[]string{LabelService, LabelKind, LabelOperation, LabelStatus},
	)

	m.commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "command_duration_seconds",
			Help:      "Duration of command invocations in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelKind, LabelOperation},
	)

	m.commandsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_in_flight",
			Help:      "Number of command invocations currently running.",
		},
		[]string{LabelService, LabelOperation},
	)

	m.eventsPushedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_pushed_total",
			Help:      "Total number of events appended to entity logs.",
		},
		[]string{LabelService, LabelOperation},
	)

	m.storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operations_total",
			Help:      "Total number of snapshot store operations.",
		},
		[]string{LabelService, LabelOperation, LabelStatus},
	)

	m.storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of snapshot store operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelOperation},
	)

	m.snapshotsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "snapshots_saved_total",
			Help:      "Total number of snapshot records stored.",
		},
		[]string{LabelService, LabelEntityType},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by type.",
		},
		[]string{LabelService, LabelErrorType},
	)
}

// Collectors returns all Prometheus collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.commandsTotal,
		m.commandDuration,
		m.commandsInFlight,
		m.eventsPushedTotal,
		m.storeOperationsTotal,
		m.storeOperationDuration,
		m.snapshotsSavedTotal,
		m.errorsTotal,
	}
}

// MustRegister registers all collectors with the default registry.
// Panics if registration fails.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(m.Collectors()...)
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, collector := range m.Collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Command Middleware
// =============================================================================

// CommandMiddleware returns middleware that records command metrics.
func (m *Metrics) CommandMiddleware() pattern.Middleware {
	return func(next pattern.MiddlewareFunc) pattern.MiddlewareFunc {
		return func(ctx context.Context, inv pattern.Invocation) (any, error) {
			kind := string(inv.Kind)

			m.commandsInFlight.WithLabelValues(m.serviceName, inv.Operation).Inc()
			defer m.commandsInFlight.WithLabelValues(m.serviceName, inv.Operation).Dec()

			start := time.Now()
			result, err := next(ctx, inv)
			duration := time.Since(start)

			m.commandDuration.WithLabelValues(m.serviceName, kind, inv.Operation).Observe(duration.Seconds())

			status := StatusSuccess
			if err != nil {
				status = StatusError
				m.errorsTotal.WithLabelValues(m.serviceName, errorTypeName(err)).Inc()
			}

			m.commandsTotal.WithLabelValues(m.serviceName, kind, inv.Operation, status).Inc()

			return result, err
		}
	}
}

// EventListener returns a listener for EventSourced.OnPushed that counts
// events by operation.
func (m *Metrics) EventListener() func(pattern.Event) {
	return func(e pattern.Event) {
		m.eventsPushedTotal.WithLabelValues(m.serviceName, e.Operation).Inc()
	}
}

// errorTypeName extracts the error type name based on sentinel errors.
func errorTypeName(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, pattern.ErrConfiguration):
		return "configuration"
	case errors.Is(err, pattern.ErrUndo):
		return "not_undoable"
	case errors.Is(err, pattern.ErrReplay):
		return "replay_failed"
	case errors.Is(err, pattern.ErrPanicked):
		return "operation_panicked"
	case errors.Is(err, pattern.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, pattern.ErrSerializationFailed):
		return "serialization_failed"
	case errors.Is(err, pattern.ErrEventGap):
		return "event_gap"
	case errors.Is(err, pattern.ErrNilEntity):
		return "nil_entity"
	case errors.Is(err, adapters.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, adapters.ErrNotFound):
		return "not_found"
	case errors.Is(err, adapters.ErrEmptyIdentity):
		return "empty_identity"
	case errors.Is(err, adapters.ErrInvalidVersion):
		return "invalid_version"
	case errors.Is(err, adapters.ErrAdapterClosed):
		return "adapter_closed"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

// =============================================================================
// Store Middleware
// =============================================================================

// StoreMiddleware wraps a SnapshotStore with metrics.
type StoreMiddleware struct {
	store   adapters.SnapshotStore
	metrics *Metrics
}

var _ adapters.SnapshotStore = (*StoreMiddleware)(nil)

// WrapStore wraps a store with metrics collection.
func (m *Metrics) WrapStore(store adapters.SnapshotStore) *StoreMiddleware {
	return &StoreMiddleware{
		store:   store,
		metrics: m,
	}
}

func (sm *StoreMiddleware) observe(operation string, start time.Time, err error) {
	m := sm.metrics
	m.storeOperationDuration.WithLabelValues(m.serviceName, operation).Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		m.errorsTotal.WithLabelValues(m.serviceName, errorTypeName(err)).Inc()
	}
	m.storeOperationsTotal.WithLabelValues(m.serviceName, operation, status).Inc()
}

// Save stores a record with metrics.
func (sm *StoreMiddleware) Save(ctx context.Context, record adapters.SnapshotRecord, expectedVersion int64) error {
	start := time.Now()
	err := sm.store.Save(ctx, record, expectedVersion)
	sm.observe(OperationSave, start, err)

	if err == nil {
		sm.metrics.snapshotsSavedTotal.WithLabelValues(sm.metrics.serviceName, record.EntityType).Inc()
	}
	return err
}

// Latest returns the latest record with metrics.
func (sm *StoreMiddleware) Latest(ctx context.Context, identity string) (*adapters.SnapshotRecord, error) {
	start := time.Now()
	record, err := sm.store.Latest(ctx, identity)
	sm.observe(OperationLatest, start, err)
	return record, err
}

// At returns the record at version with metrics.
func (sm *StoreMiddleware) At(ctx context.Context, identity string, version int64) (*adapters.SnapshotRecord, error) {
	start := time.Now()
	record, err := sm.store.At(ctx, identity, version)
	sm.observe(OperationAt, start, err)
	return record, err
}

// History returns every record with metrics.
func (sm *StoreMiddleware) History(ctx context.Context, identity string) ([]adapters.SnapshotRecord, error) {
	start := time.Now()
	records, err := sm.store.History(ctx, identity)
	sm.observe(OperationHistory, start, err)
	return records, err
}

// Delete removes every record with metrics.
func (sm *StoreMiddleware) Delete(ctx context.Context, identity string) error {
	start := time.Now()
	err := sm.store.Delete(ctx, identity)
	sm.observe(OperationDelete, start, err)
	return err
}

// Initialize initializes the store if it supports migrations.
func (sm *StoreMiddleware) Initialize(ctx context.Context) error {
	if migrator, ok := sm.store.(adapters.Migrator); ok {
		return migrator.Initialize(ctx)
	}
	return nil
}

// Ping checks the store if it supports health checks.
func (sm *StoreMiddleware) Ping(ctx context.Context) error {
	if checker, ok := sm.store.(adapters.HealthChecker); ok {
		return checker.Ping(ctx)
	}
	return nil
}

// Close closes the store.
func (sm *StoreMiddleware) Close() error {
	return sm.store.Close()
}

// =============================================================================
// Manual Metric Recording
// =============================================================================

// RecordError records a custom error.
func (m *Metrics) RecordError(errorType string) {
	m.errorsTotal.WithLabelValues(m.serviceName, errorType).Inc()
}

// =============================================================================
// Getters for testing
// =============================================================================

// CommandsTotal returns the commands counter.
func (m *Metrics) CommandsTotal() *prometheus.CounterVec {
	return m.commandsTotal
}

// CommandDuration returns the command duration histogram.
func (m *Metrics) CommandDuration() *prometheus.HistogramVec {
	return m.commandDuration
}

// CommandsInFlight returns the in-flight commands gauge.
func (m *Metrics) CommandsInFlight() *prometheus.GaugeVec {
	return m.commandsInFlight
}

// EventsPushedTotal returns the events pushed counter.
func (m *Metrics) EventsPushedTotal() *prometheus.CounterVec {
	return m.eventsPushedTotal
}

// StoreOperationsTotal returns the store operations counter.
func (m *Metrics) StoreOperationsTotal() *prometheus.CounterVec {
	return m.storeOperationsTotal
}

// StoreOperationDuration returns the store duration histogram.
func (m *Metrics) StoreOperationDuration() *prometheus.HistogramVec {
	return m.storeOperationDuration
}

// SnapshotsSavedTotal returns the snapshots saved counter.
func (m *Metrics) SnapshotsSavedTotal() *prometheus.CounterVec {
	return m.snapshotsSavedTotal
}

// ErrorsTotal returns the errors counter.
func (m *Metrics) ErrorsTotal() *prometheus.CounterVec {
	return m.errorsTotal
}
