// Package postgres provides a PostgreSQL implementation of the snapshot store adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Version constants for optimistic concurrency control.
const (
	AnyVersion = adapters.AnyVersion
	NoSnapshot = adapters.NoSnapshot
)

// Sentinel errors for the postgres adapter.
// These are aliases to the adapters package errors for compatibility with errors.Is().
var (
	ErrAdapterClosed   = adapters.ErrAdapterClosed
	ErrEmptyIdentity   = adapters.ErrEmptyIdentity
	ErrVersionConflict = adapters.ErrVersionConflict
	ErrNotFound        = adapters.ErrNotFound
	ErrInvalidVersion  = adapters.ErrInvalidVersion
)

// Ensure PostgresAdapter implements required interfaces.
var (
	_ adapters.SnapshotStore = (*PostgresAdapter)(nil)
	_ adapters.HealthChecker = (*PostgresAdapter)(nil)
	_ adapters.Migrator      = (*PostgresAdapter)(nil)
)

const uniqueViolation = "23505"

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresAdapter is a PostgreSQL implementation of SnapshotStore.
type PostgresAdapter struct {
	db     *sql.DB
	schema string
	closed bool
}

// Option configures a PostgresAdapter.
type Option func(*PostgresAdapter)

// WithSchema sets the database schema name.
func WithSchema(schema string) Option {
	return func(a *PostgresAdapter) {
		a.schema = schema
	}
}

// WithMaxConnections sets the maximum number of open connections.
func WithMaxConnections(n int) Option {
	return func(a *PostgresAdapter) {
		a.db.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConnections sets the maximum number of idle connections.
func WithMaxIdleConnections(n int) Option {
	return func(a *PostgresAdapter) {
		a.db.SetMaxIdleConns(n)
	}
}

// WithConnectionMaxLifetime sets the maximum connection lifetime.
func WithConnectionMaxLifetime(d time.Duration) Option {
	return func(a *PostgresAdapter) {
		a.db.SetConnMaxLifetime(d)
	}
}

// NewAdapter creates a new PostgreSQL snapshot store adapter.
func NewAdapter(connStr string, opts ...Option) (*PostgresAdapter, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("pattern/postgres: failed to open database: %w", err)
	}

	return NewAdapterWithDB(db, opts...), nil
}

// NewAdapterWithDB creates a new adapter with an existing database connection.
func NewAdapterWithDB(db *sql.DB, opts ...Option) *PostgresAdapter {
	adapter := &PostgresAdapter{
		db:     db,
		schema: "pattern",
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Initialize creates the required database schema and tables.
func (a *PostgresAdapter) Initialize(ctx context.Context) error {
	return a.Migrate(ctx)
}

// Migrate runs database migrations.
func (a *PostgresAdapter) Migrate(ctx context.Context) error {
	if err := validateIdentifier(a.schema); err != nil {
		return err
	}
	schema := quoteIdentifier(a.schema)

	statements := []struct {
		what  string
		query string
	}{
		{"schema", fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)},
		{"entities table", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.entities (
				identity        VARCHAR(500) PRIMARY KEY,
				entity_type     VARCHAR(250) NOT NULL DEFAULT '',
				version         BIGINT NOT NULL,
				updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, schema)},
		{"snapshots table", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.snapshots (
				identity        VARCHAR(500) NOT NULL,
				version         BIGINT NOT NULL,
				entity_type     VARCHAR(250) NOT NULL DEFAULT '',
				data            BYTEA NOT NULL,
				created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (identity, version)
			)`, schema)},
		{"index", fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_snapshots_type ON %s.snapshots(entity_type)`, schema)},
	}

	for _, stmt := range statements {
		if _, err := a.db.ExecContext(ctx, stmt.query); err != nil {
			return fmt.Errorf("pattern/postgres: failed to create %s: %w", stmt.what, err)
		}
	}

	return nil
}

// Save stores record with optimistic concurrency control.
func (a *PostgresAdapter) Save(ctx context.Context, record adapters.SnapshotRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.closed {
		return ErrAdapterClosed
	}
	if err := adapters.ValidateRecord(record); err != nil {
		return err
	}

	schema := quoteIdentifier(a.schema)

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pattern/postgres: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Get current entity version with lock
	var current int64
	var exists bool
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT version FROM %s.entities
		WHERE identity = $1
		FOR UPDATE`, schema), record.Identity).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return fmt.Errorf("pattern/postgres: failed to get entity version: %w", err)
	default:
		exists = true
	}

	if err := adapters.CheckVersion(record.Identity, expectedVersion, current); err != nil {
		return err
	}
	if record.Version <= current {
		return adapters.NewConflictError(record.Identity, record.Version, current)
	}

	if exists {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s.entities SET version = $2, entity_type = $3, updated_at = NOW()
			WHERE identity = $1`, schema), record.Identity, record.Version, record.EntityType)
	} else {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s.entities (identity, entity_type, version)
			VALUES ($1, $2, $3)`, schema), record.Identity, record.EntityType, record.Version)
	}
	if err != nil {
		return a.mapWriteError(record, current, "update entity", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	data := record.Data
	if data == nil {
		data = []byte{}
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.snapshots (identity, version, entity_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5)`, schema),
		record.Identity, record.Version, record.EntityType, data, createdAt)
	if err != nil {
		return a.mapWriteError(record, current, "insert snapshot", err)
	}

	if err := tx.Commit(); err != nil {
		return a.mapWriteError(record, current, "commit transaction", err)
	}
	return nil
}

func (a *PostgresAdapter) mapWriteError(record adapters.SnapshotRecord, current int64, what string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return adapters.NewConflictError(record.Identity, record.Version, current)
	}
	return fmt.Errorf("pattern/postgres: failed to %s: %w", what, err)
}

// Latest returns the highest-version record for identity.
func (a *PostgresAdapter) Latest(ctx context.Context, identity string) (*adapters.SnapshotRecord, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}
	if identity == "" {
		return nil, ErrEmptyIdentity
	}

	record, err := scanRecord(a.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT identity, entity_type, version, data, created_at
		FROM %s.snapshots
		WHERE identity = $1
		ORDER BY version DESC
		LIMIT 1`, quoteIdentifier(a.schema)), identity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, adapters.NewNotFoundError(identity, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("pattern/postgres: failed to load snapshot: %w", err)
	}
	return record, nil
}

// At returns the record stored at version.
func (a *PostgresAdapter) At(ctx context.Context, identity string, version int64) (*adapters.SnapshotRecord, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}
	if identity == "" {
		return nil, ErrEmptyIdentity
	}
	if version <= 0 {
		return nil, ErrInvalidVersion
	}

	record, err := scanRecord(a.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT identity, entity_type, version, data, created_at
		FROM %s.snapshots
		WHERE identity = $1 AND version = $2`, quoteIdentifier(a.schema)), identity, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, adapters.NewNotFoundError(identity, version)
	}
	if err != nil {
		return nil, fmt.Errorf("pattern/postgres: failed to load snapshot: %w", err)
	}
	return record, nil
}

// History returns every record for identity in ascending version order.
func (a *PostgresAdapter) History(ctx context.Context, identity string) ([]adapters.SnapshotRecord, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}
	if identity == "" {
		return nil, ErrEmptyIdentity
	}

	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT identity, entity_type, version, data, created_at
		FROM %s.snapshots
		WHERE identity = $1
		ORDER BY version ASC`, quoteIdentifier(a.schema)), identity)
	if err != nil {
		return nil, fmt.Errorf("pattern/postgres: failed to query snapshots: %w", err)
	}
	defer rows.Close()

	history := make([]adapters.SnapshotRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("pattern/postgres: failed to scan snapshot: %w", err)
		}
		history = append(history, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pattern/postgres: failed to iterate snapshots: %w", err)
	}
	return history, nil
}

// Delete removes every record for identity.
func (a *PostgresAdapter) Delete(ctx context.Context, identity string) error {
	if a.closed {
		return ErrAdapterClosed
	}
	if identity == "" {
		return ErrEmptyIdentity
	}

	schema := quoteIdentifier(a.schema)
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pattern/postgres: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s.snapshots WHERE identity = $1`, schema), identity); err != nil {
		return fmt.Errorf("pattern/postgres: failed to delete snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s.entities WHERE identity = $1`, schema), identity); err != nil {
		return fmt.Errorf("pattern/postgres: failed to delete entity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pattern/postgres: failed to commit transaction: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (a *PostgresAdapter) Close() error {
	a.closed = true
	return a.db.Close()
}

// Ping checks database connectivity.
func (a *PostgresAdapter) Ping(ctx context.Context) error {
	if a.closed {
		return ErrAdapterClosed
	}
	return a.db.PingContext(ctx)
}

// DB returns the underlying database connection.
func (a *PostgresAdapter) DB() *sql.DB {
	return a.db
}

// Schema returns the schema name.
func (a *PostgresAdapter) Schema() string {
	return a.schema
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*adapters.SnapshotRecord, error) {
	var record adapters.SnapshotRecord
	if err := row.Scan(
		&record.Identity,
		&record.EntityType,
		&record.Version,
		&record.Data,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

// validateIdentifier checks that name is a valid PostgreSQL identifier.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("pattern/postgres: schema name cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("pattern/postgres: schema name exceeds 63 characters")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("pattern/postgres: schema name %q contains invalid characters", name)
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}
