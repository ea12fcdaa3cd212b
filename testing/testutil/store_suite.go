package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshkanYarmoradi/go-pattern/adapters"
)

// StoreFactory creates a fresh, empty, initialised store for one subtest.
type StoreFactory func(t *testing.T) adapters.SnapshotStore

// RunSnapshotStoreSuite runs the behaviour every SnapshotStore must share.
func RunSnapshotStoreSuite(t *testing.T, newStore StoreFactory) {
	t.Helper()
	ctx := context.Background()

	record := Record

	t.Run("save and load latest", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 1, `{"v":1}`), adapters.NoSnapshot))
		require.NoError(t, store.Save(ctx, record("p-1", 3, `{"v":3}`), 1))

		latest, err := store.Latest(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), latest.Version)
		assert.Equal(t, "Person", latest.EntityType)
		assert.JSONEq(t, `{"v":3}`, string(latest.Data))
		assert.False(t, latest.CreatedAt.IsZero())
	})

	t.Run("load exact version", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 1, `{"v":1}`), adapters.NoSnapshot))
		require.NoError(t, store.Save(ctx, record("p-1", 2, `{"v":2}`), 1))

		at, err := store.At(ctx, "p-1", 1)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(at.Data))

		_, err = store.At(ctx, "p-1", 5)
		assert.ErrorIs(t, err, adapters.ErrNotFound)
	})

	t.Run("history in version order", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 2, `{}`), adapters.NoSnapshot))
		require.NoError(t, store.Save(ctx, record("p-1", 4, `{}`), 2))
		require.NoError(t, store.Save(ctx, record("p-2", 1, `{}`), adapters.NoSnapshot))

		history, err := store.History(ctx, "p-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, int64(2), history[0].Version)
		assert.Equal(t, int64(4), history[1].Version)
	})

	t.Run("history of unknown identity is empty", func(t *testing.T) {
		store := newStore(t)

		history, err := store.History(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("latest of unknown identity", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Latest(ctx, "nobody")
		assert.ErrorIs(t, err, adapters.ErrNotFound)
	})

	t.Run("stale expected version conflicts", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 1, `{}`), adapters.NoSnapshot))
		require.NoError(t, store.Save(ctx, record("p-1", 2, `{}`), 1))

		err := store.Save(ctx, record("p-1", 2, `{}`), 1)
		assert.ErrorIs(t, err, adapters.ErrVersionConflict)

		var conflict *adapters.ConflictError
		if assert.True(t, errors.As(err, &conflict)) {
			assert.Equal(t, "p-1", conflict.Identity)
		}
	})

	t.Run("new entity over existing conflicts", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 1, `{}`), adapters.NoSnapshot))
		err := store.Save(ctx, record("p-1", 1, `{}`), adapters.NoSnapshot)
		assert.ErrorIs(t, err, adapters.ErrVersionConflict)
	})

	t.Run("duplicate version with any version conflicts", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 2, `{}`), adapters.AnyVersion))
		err := store.Save(ctx, record("p-1", 2, `{}`), adapters.AnyVersion)
		assert.ErrorIs(t, err, adapters.ErrVersionConflict)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		store := newStore(t)

		assert.ErrorIs(t, store.Save(ctx, record("", 1, `{}`), adapters.AnyVersion), adapters.ErrEmptyIdentity)
		assert.ErrorIs(t, store.Save(ctx, record("p-1", 0, `{}`), adapters.AnyVersion), adapters.ErrInvalidVersion)
		_, err := store.Latest(ctx, "")
		assert.ErrorIs(t, err, adapters.ErrEmptyIdentity)
	})

	t.Run("delete removes all versions", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(ctx, record("p-1", 1, `{}`), adapters.NoSnapshot))
		require.NoError(t, store.Save(ctx, record("p-1", 2, `{}`), 1))
		require.NoError(t, store.Delete(ctx, "p-1"))

		_, err := store.Latest(ctx, "p-1")
		assert.ErrorIs(t, err, adapters.ErrNotFound)
		require.NoError(t, store.Save(ctx, record("p-1", 1, `{}`), adapters.NoSnapshot))
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		store := newStore(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := store.Save(cancelled, record("p-1", 1, `{}`), adapters.NoSnapshot)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("preserves created at when set", func(t *testing.T) {
		store := newStore(t)

		createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		r := record("p-1", 1, `{}`)
		r.CreatedAt = createdAt
		require.NoError(t, store.Save(ctx, r, adapters.NoSnapshot))

		latest, err := store.Latest(ctx, "p-1")
		require.NoError(t, err)
		assert.True(t, createdAt.Equal(latest.CreatedAt))
	})
}
