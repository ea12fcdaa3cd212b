// Package containers runs snapshot store integration tests against a live
// PostgreSQL server. The server is taken from TEST_DATABASE_URL; tests are
// skipped when it is unset or never answers.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/AshkanYarmoradi/go-pattern"
	"github.com/AshkanYarmoradi/go-pattern/adapters/postgres"
	"github.com/AshkanYarmoradi/go-pattern/testing/testutil"
)

// Option configures a Postgres harness.
type Option func(*config)

type config struct {
	url          string
	schemaPrefix string
	wait         time.Duration
	timeout      time.Duration
}

// WithURL connects to url instead of TEST_DATABASE_URL.
func WithURL(url string) Option {
	return func(c *config) {
		c.url = url
	}
}

// WithSchemaPrefix sets the prefix of the per-test schema.
func WithSchemaPrefix(prefix string) Option {
	return func(c *config) {
		c.schemaPrefix = prefix
	}
}

// WithWait sets how long to wait for the server before skipping.
func WithWait(d time.Duration) Option {
	return func(c *config) {
		c.wait = d
	}
}

// WithTimeout bounds the context handed to the test.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Postgres is a snapshot store in a schema of its own, dropped on cleanup.
type Postgres struct {
	t      testing.TB
	ctx    context.Context
	db     *sql.DB
	schema string
	store  *postgres.PostgresAdapter
}

// NewPostgres connects, creates a fresh schema and initializes the snapshot
// tables in it.
func NewPostgres(t testing.TB, opts ...Option) *Postgres {
	t.Helper()

	cfg := &config{
		schemaPrefix: "pattern_it",
		wait:         5 * time.Second,
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.url == "" {
		cfg.url = testutil.SkipUnlessPostgres(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	t.Cleanup(cancel)

	db, err := connect(ctx, cfg.url, cfg.wait)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	schema := testutil.UniqueSchema(cfg.schemaPrefix)
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA "+quoteIdentifier(schema)); err != nil {
		db.Close()
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	store := postgres.NewAdapterWithDB(db, postgres.WithSchema(schema))
	if err := store.Initialize(ctx); err != nil {
		db.Close()
		t.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	t.Cleanup(func() {
		if _, err := db.ExecContext(context.Background(), "DROP SCHEMA IF EXISTS "+quoteIdentifier(schema)+" CASCADE"); err != nil {
			t.Logf("Warning: failed to drop schema %s: %v", schema, err)
		}
		db.Close()
	})

	return &Postgres{t: t, ctx: ctx, db: db, schema: schema, store: store}
}

// Context returns the test context.
func (p *Postgres) Context() context.Context {
	return p.ctx
}

// DB returns the database connection.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// Schema returns the test schema name.
func (p *Postgres) Schema() string {
	return p.schema
}

// Store returns the snapshot store bound to the test schema.
func (p *Postgres) Store() *postgres.PostgresAdapter {
	return p.store
}

// Repository returns a repository over Store.
func (p *Postgres) Repository(opts ...pattern.RepositoryOption) *pattern.Repository {
	return pattern.NewRepository(p.store, opts...)
}

// Versions returns the stored snapshot versions of identity, oldest first.
func (p *Postgres) Versions(identity string) []int64 {
	p.t.Helper()

	query := fmt.Sprintf("SELECT version FROM %s.snapshots WHERE identity = $1 ORDER BY version", quoteIdentifier(p.schema))
	rows, err := p.db.QueryContext(p.ctx, query, identity)
	if err != nil {
		p.t.Fatalf("Failed to query snapshots: %v", err)
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			p.t.Fatalf("Failed to scan version: %v", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		p.t.Fatalf("Failed to read snapshots: %v", err)
	}
	return versions
}

// connect polls url until the server answers or wait elapses.
func connect(ctx context.Context, url string, wait time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		err := db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
