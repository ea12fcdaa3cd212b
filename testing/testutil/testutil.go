package testutil

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// PostgresURLEnv names the variable holding the integration database URL.
const PostgresURLEnv = "TEST_DATABASE_URL"

// SkipUnlessPostgres skips t under -short or when no integration database is
// configured, and otherwise returns its connection string.
func SkipUnlessPostgres(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv(PostgresURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", PostgresURLEnv)
	}
	return url
}

var schemaSeq atomic.Int64

// UniqueSchema returns a schema name that no other call in this process
// returns, so parallel tests never share tables.
func UniqueSchema(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), schemaSeq.Add(1))
}

// Record builds a stored snapshot record of a Person with raw data.
func Record(identity string, version int64, data string) adapters.SnapshotRecord {
	return adapters.SnapshotRecord{
		Identity:   identity,
		EntityType: "Person",
		Version:    version,
		Data:       []byte(data),
	}
}
