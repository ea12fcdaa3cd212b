// Package sqlite provides an embedded SQLite implementation of the snapshot
// store adapter, backed by the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// Ensure SQLiteAdapter implements required interfaces.
var (
	_ adapters.SnapshotStore = (*SQLiteAdapter)(nil)
	_ adapters.HealthChecker = (*SQLiteAdapter)(nil)
	_ adapters.Migrator      = (*SQLiteAdapter)(nil)
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	identity    TEXT    NOT NULL,
	version     INTEGER NOT NULL,
	entity_type TEXT    NOT NULL DEFAULT '',
	data        BLOB    NOT NULL,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (identity, version)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_type ON snapshots(entity_type);
`

// SQLiteAdapter is a SQLite implementation of SnapshotStore.
type SQLiteAdapter struct {
	db     *sql.DB
	closed bool
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*SQLiteAdapter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("pattern/sqlite: storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("pattern/sqlite: failed to open database: %w", err)
	}

	adapter := NewAdapterWithDB(db)
	if err := adapter.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pattern/sqlite: failed to ping database: %w", err)
	}
	if err := adapter.Initialize(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return adapter, nil
}

// NewAdapterWithDB wraps an existing SQLite handle. Writes are serialised on
// a single connection, which also keeps ":memory:" databases shared.
func NewAdapterWithDB(db *sql.DB) *SQLiteAdapter {
	db.SetMaxOpenConns(1)
	return &SQLiteAdapter{db: db}
}

// Initialize creates the snapshots table if it does not exist.
func (a *SQLiteAdapter) Initialize(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pattern/sqlite: failed to create schema: %w", err)
	}
	return nil
}

// Save stores record with optimistic concurrency control.
func (a *SQLiteAdapter) Save(ctx context.Context, record adapters.SnapshotRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.closed {
		return adapters.ErrAdapterClosed
	}
	if err := adapters.ValidateRecord(record); err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pattern/sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM snapshots WHERE identity = ?`,
		record.Identity,
	).Scan(&current); err != nil {
		return fmt.Errorf("pattern/sqlite: failed to get entity version: %w", err)
	}

	if err := adapters.CheckVersion(record.Identity, expectedVersion, current); err != nil {
		return err
	}
	if record.Version <= current {
		return adapters.NewConflictError(record.Identity, record.Version, current)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	data := record.Data
	if data == nil {
		data = []byte{}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (identity, version, entity_type, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.Identity, record.Version, record.EntityType, data, toMillis(createdAt),
	); err != nil {
		if isConstraintViolation(err) {
			return adapters.NewConflictError(record.Identity, record.Version, current)
		}
		return fmt.Errorf("pattern/sqlite: failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pattern/sqlite: failed to commit transaction: %w", err)
	}
	return nil
}

// Latest returns the highest-version record for identity.
func (a *SQLiteAdapter) Latest(ctx context.Context, identity string) (*adapters.SnapshotRecord, error) {
	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}
	if identity == "" {
		return nil, adapters.ErrEmptyIdentity
	}

	record, err := scanRecord(a.db.QueryRowContext(ctx, `
		SELECT identity, entity_type, version, data, created_at
		FROM snapshots WHERE identity = ?
		ORDER BY version DESC LIMIT 1`, identity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, adapters.NewNotFoundError(identity, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("pattern/sqlite: failed to load snapshot: %w", err)
	}
	return record, nil
}

// At returns the record stored at version.
func (a *SQLiteAdapter) At(ctx context.Context, identity string, version int64) (*adapters.SnapshotRecord, error) {
	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}
	if identity == "" {
		return nil, adapters.ErrEmptyIdentity
	}
	if version <= 0 {
		return nil, adapters.ErrInvalidVersion
	}

	record, err := scanRecord(a.db.QueryRowContext(ctx, `
		SELECT identity, entity_type, version, data, created_at
		FROM snapshots WHERE identity = ? AND version = ?`, identity, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, adapters.NewNotFoundError(identity, version)
	}
	if err != nil {
		return nil, fmt.Errorf("pattern/sqlite: failed to load snapshot: %w", err)
	}
	return record, nil
}

// History returns every record for identity in ascending version order.
func (a *SQLiteAdapter) History(ctx context.Context, identity string) ([]adapters.SnapshotRecord, error) {
	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}
	if identity == "" {
		return nil, adapters.ErrEmptyIdentity
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT identity, entity_type, version, data, created_at
		FROM snapshots WHERE identity = ?
		ORDER BY version ASC`, identity)
	if err != nil {
		return nil, fmt.Errorf("pattern/sqlite: failed to query snapshots: %w", err)
	}
	defer rows.Close()

	history := make([]adapters.SnapshotRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("pattern/sqlite: failed to scan snapshot: %w", err)
		}
		history = append(history, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pattern/sqlite: failed to iterate snapshots: %w", err)
	}
	return history, nil
}

// Delete removes every record for identity.
func (a *SQLiteAdapter) Delete(ctx context.Context, identity string) error {
	if a.closed {
		return adapters.ErrAdapterClosed
	}
	if identity == "" {
		return adapters.ErrEmptyIdentity
	}
	if _, err := a.db.ExecContext(ctx, `DELETE FROM snapshots WHERE identity = ?`, identity); err != nil {
		return fmt.Errorf("pattern/sqlite: failed to delete snapshots: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (a *SQLiteAdapter) Close() error {
	a.closed = true
	return a.db.Close()
}

// Ping checks database connectivity.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	if a.closed {
		return adapters.ErrAdapterClosed
	}
	return a.db.PingContext(ctx)
}

// DB returns the underlying database handle.
func (a *SQLiteAdapter) DB() *sql.DB {
	return a.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*adapters.SnapshotRecord, error) {
	var (
		record    adapters.SnapshotRecord
		createdAt int64
	)
	if err := row.Scan(
		&record.Identity,
		&record.EntityType,
		&record.Version,
		&record.Data,
		&createdAt,
	); err != nil {
		return nil, err
	}
	record.CreatedAt = fromMillis(createdAt)
	return &record, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
