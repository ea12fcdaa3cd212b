package assertions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshkanYarmoradi/go-pattern"
	"github.com/AshkanYarmoradi/go-pattern/testing/testutil"
)

// =============================================================================
// Fixtures
// =============================================================================

func openAccount(t *testing.T) *testutil.Account {
	t.Helper()
	a := testutil.NewAccount("acc-1")
	require.NoError(t, a.Open("ann"))
	require.NoError(t, a.Deposit(100))
	require.NoError(t, a.Withdraw(30))
	return a
}

func events(ops ...string) []pattern.Event {
	out := make([]pattern.Event, 0, len(ops))
	for i, op := range ops {
		out = append(out, pattern.Event{Operation: op, Version: int64(i + 1)})
	}
	return out
}

// =============================================================================
// Operation Assertions
// =============================================================================

func TestAssertOperations(t *testing.T) {
	a := openAccount(t)

	t.Run("passes on matching operations", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertOperations(m, a.Events(), "open", "deposit", "withdraw")
		})
		assert.False(t, mt.Failed())
	})

	t.Run("fails fatally on count mismatch", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertOperations(m, a.Events(), "open")
		})
		assert.True(t, mt.Fatal_)
		assert.Contains(t, mt.Message, "Expected 1 events, got 3")
	})

	t.Run("fails on wrong operation", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertOperations(m, a.Events(), "open", "withdraw", "withdraw")
		})
		assert.True(t, mt.Failed())
		assert.False(t, mt.Fatal_)
		assert.Contains(t, mt.Message, "expected operation withdraw, got deposit")
	})
}

func TestAssertEventArgs(t *testing.T) {
	a := openAccount(t)
	evs := a.Events()

	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertEventArgs(m, evs[1], int64(100))
		AssertEventArgs(m, pattern.Event{Operation: "close"})
	})
	assert.False(t, mt.Failed())

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertEventArgs(m, evs[1], int64(99))
	})
	assert.True(t, mt.Failed())
	assert.Contains(t, mt.Message, "deposit arguments mismatch")
}

func TestAssertEventCount(t *testing.T) {
	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertEventCount(m, events("a", "b"), 2)
		AssertNoEvents(m, nil)
	})
	assert.False(t, mt.Failed())

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertNoEvents(m, events("a", "b"))
	})
	assert.True(t, mt.Failed())
	assert.Contains(t, mt.Message, "a, b")
}

func TestAssertLastEvent(t *testing.T) {
	a := openAccount(t)

	t.Run("matches last event", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertLastEvent(m, a.Events(), "withdraw", int64(30))
		})
		assert.False(t, mt.Failed())
	})

	t.Run("fails on empty log", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertLastEvent(m, nil, "withdraw")
		})
		assert.True(t, mt.Fatal_)
	})

	t.Run("fails on wrong operation", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertLastEvent(m, a.Events(), "deposit", int64(30))
		})
		assert.True(t, mt.Failed())
	})
}

// =============================================================================
// Version Assertions
// =============================================================================

func TestAssertContiguousVersions(t *testing.T) {
	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertContiguousVersions(m, events("a", "b", "c"), 0)
	})
	assert.False(t, mt.Failed())

	gapped := []pattern.Event{{Operation: "a", Version: 4}, {Operation: "b", Version: 6}}
	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertContiguousVersions(m, gapped, 3)
	})
	assert.True(t, mt.Failed())
	assert.Contains(t, mt.Message, "expected version 5, got 6")
}

func TestAssertVersionInvariant(t *testing.T) {
	a := openAccount(t)

	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertVersionInvariant(m, a)
	})
	assert.False(t, mt.Failed())

	_, err := a.BuildSnapshot()
	require.NoError(t, err)

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertVersionInvariant(m, a)
		AssertEmptyPatch(m, a)
	})
	assert.False(t, mt.Failed())
}

func TestAssertEmptyPatch(t *testing.T) {
	a := openAccount(t)

	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertEmptyPatch(m, a)
	})
	assert.True(t, mt.Failed())
	assert.Contains(t, mt.Message, "/balance")
}

func TestAssertPatchPaths(t *testing.T) {
	patch := pattern.Patch{
		{Op: "replace", Path: "/balance", Value: 70},
		{Op: "add", Path: "/owner", Value: "ann"},
	}

	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertPatchPaths(m, patch, "/balance", "/owner")
		AssertPatchPaths(m, nil)
	})
	assert.False(t, mt.Failed())

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertPatchPaths(m, patch, "/owner")
	})
	assert.True(t, mt.Failed())
}

// =============================================================================
// History Assertions
// =============================================================================

func TestAssertUndoRestores(t *testing.T) {
	ctx := context.Background()
	c := &testutil.Counter{}
	h := pattern.NewCommandHistory(testutil.CounterOperations.Bind(c))
	state := func() any { return c.Sum() }

	t.Run("passes when undo inverts", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertUndoRestores(m, ctx, h, state, "add", pattern.Args{3}, pattern.WithUndo("add", pattern.Args{-3}))
		})
		assert.False(t, mt.Failed())
	})

	t.Run("fails when undo is not an inverse", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertUndoRestores(m, ctx, h, state, "incr", nil, pattern.WithUndo("add", pattern.Args{-2}))
		})
		assert.True(t, mt.Failed())
		assert.Contains(t, mt.Message, "did not restore state")
	})

	t.Run("fails fatally without undo", func(t *testing.T) {
		mt := testutil.RunWithMockT(func(m *testutil.MockT) {
			AssertUndoRestores(m, ctx, h, state, "incr", nil)
		})
		assert.True(t, mt.Fatal_)
		assert.Contains(t, mt.Message, "Undo incr failed")
	})
}

// =============================================================================
// Diff Tests
// =============================================================================

func TestDiffEvents(t *testing.T) {
	t.Run("no differences", func(t *testing.T) {
		diffs := DiffEvents(events("a", "b"), events("a", "b"))
		assert.Empty(t, diffs)
		assert.Equal(t, "no differences", FormatDiffs(diffs))
	})

	t.Run("ignores timestamps", func(t *testing.T) {
		a := openAccount(t)
		b := openAccount(t)
		assert.Empty(t, DiffEvents(a.Events(), b.Events()))
	})

	t.Run("extra missing and mismatch", func(t *testing.T) {
		diffs := DiffEvents(events("a", "b"), events("a", "c", "d"))
		require.Len(t, diffs, 2)
		assert.Equal(t, DiffMismatch, diffs[0].Type)
		assert.Equal(t, DiffExtra, diffs[1].Type)

		diffs = DiffEvents(events("a", "b"), events("a"))
		require.Len(t, diffs, 1)
		assert.Equal(t, DiffMissing, diffs[0].Type)
		assert.Equal(t, 1, diffs[0].Index)
	})

	t.Run("formats diffs", func(t *testing.T) {
		out := FormatDiffs(DiffEvents(events("a", "b"), events("a", "c", "d")))
		assert.Contains(t, out, "Event 1 (mismatch)")
		assert.Contains(t, out, "- v2 b[]")
		assert.Contains(t, out, "+ v2 c[]")
		assert.Contains(t, out, "(unexpected)")
	})
}

func TestDiffType_String(t *testing.T) {
	assert.Equal(t, "missing", DiffMissing.String())
	assert.Equal(t, "extra", DiffExtra.String())
	assert.Equal(t, "mismatch", DiffMismatch.String())
	assert.Equal(t, "unknown", DiffType(99).String())
}

func TestAssertEventsEqual(t *testing.T) {
	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertEventsEqual(m, events("a"), events("a"))
	})
	assert.False(t, mt.Failed())

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertEventsEqual(m, events("a"), events("b"))
	})
	assert.True(t, mt.Failed())
	assert.Contains(t, mt.Message, "Event differences")
}

// =============================================================================
// Matcher Tests
// =============================================================================

func TestMatchers(t *testing.T) {
	a := openAccount(t)
	evs := a.Events()

	assert.Equal(t, 1, CountMatches(evs, MatchOperation("deposit")))
	assert.Equal(t, 1, CountMatches(evs, MatchEvent("withdraw", int64(30))))
	assert.Equal(t, 0, CountMatches(evs, MatchEvent("withdraw", int64(31))))
	assert.Len(t, FilterEvents(evs, MatchOperation("open")), 1)
	assert.Nil(t, FilterEvents(evs, MatchOperation("close")))

	mt := testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertAnyMatch(m, evs, MatchOperation("open"))
		AssertNoneMatch(m, evs, MatchOperation("close"))
	})
	assert.False(t, mt.Failed())

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertAnyMatch(m, evs, MatchOperation("close"))
	})
	assert.True(t, mt.Failed())

	mt = testutil.RunWithMockT(func(m *testutil.MockT) {
		AssertNoneMatch(m, evs, MatchOperation("open"))
	})
	assert.True(t, mt.Failed())
}
