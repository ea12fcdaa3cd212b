// Package assertions provides assertion utilities for testing event-sourced
// entities and command histories.
// It includes helpers for comparing event logs, checking versions, and
// generating event diffs.
package assertions

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/AshkanYarmoradi/go-pattern"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// AssertOperations checks that the events record the expected operations in order.
func AssertOperations(t TB, events []pattern.Event, operations ...string) {
	t.Helper()

	if len(events) != len(operations) {
		t.Fatalf("Expected %d events, got %d", len(operations), len(events))
	}

	for i, expected := range operations {
		if events[i].Operation != expected {
			t.Errorf("Event %d: expected operation %s, got %s", i, expected, events[i].Operation)
		}
	}
}

// AssertEventArgs checks that event carries exactly args.
func AssertEventArgs(t TB, event pattern.Event, args ...any) {
	t.Helper()

	if !sameArgs(event.Args, args) {
		t.Errorf("Event %s arguments mismatch:\nExpected: %+v\nActual: %+v", event.Operation, args, []any(event.Args))
	}
}

// AssertEventCount checks the number of events.
func AssertEventCount(t TB, events []pattern.Event, expected int) {
	t.Helper()

	if len(events) != expected {
		t.Errorf("Expected %d events, got %d", expected, len(events))
	}
}

// AssertNoEvents checks that no events were logged.
func AssertNoEvents(t TB, events []pattern.Event) {
	t.Helper()

	if len(events) > 0 {
		t.Errorf("Expected no events, got %d: %s", len(events), operationList(events))
	}
}

// AssertLastEvent checks the operation and arguments of the last event.
func AssertLastEvent(t TB, events []pattern.Event, operation string, args ...any) {
	t.Helper()

	if len(events) == 0 {
		t.Fatal("Expected at least one event, got none")
	}

	last := events[len(events)-1]
	if last.Operation != operation {
		t.Errorf("Last event: expected operation %s, got %s", operation, last.Operation)
		return
	}
	AssertEventArgs(t, last, args...)
}

// AssertContiguousVersions checks that event versions run from+1, from+2, ...
// without gaps.
func AssertContiguousVersions(t TB, events []pattern.Event, from int64) {
	t.Helper()

	for i, event := range events {
		want := from + int64(i) + 1
		if event.Version != want {
			t.Errorf("Event %d (%s): expected version %d, got %d", i, event.Operation, want, event.Version)
		}
	}
}

// AssertVersionInvariant checks that the entity version equals its snapshot
// version plus the number of logged events.
func AssertVersionInvariant(t TB, entity pattern.Sourced) {
	t.Helper()

	want := entity.Snapshot().Version() + int64(len(entity.Events()))
	if entity.Version() != want {
		t.Errorf("Version %d does not match snapshot version %d plus %d events",
			entity.Version(), entity.Snapshot().Version(), len(entity.Events()))
	}
}

// AssertEmptyPatch checks that the entity has no changes against its snapshot
// other than the version.
func AssertEmptyPatch(t TB, entity interface {
	PatchAgainstSnapshot() (pattern.Patch, error)
}) {
	t.Helper()

	patch, err := entity.PatchAgainstSnapshot()
	if err != nil {
		t.Fatalf("Failed to diff against snapshot: %v", err)
	}
	var changes []string
	for _, op := range patch {
		if op.Path == "/"+pattern.VersionKey {
			continue
		}
		changes = append(changes, op.Op+" "+op.Path)
	}
	if len(changes) > 0 {
		t.Errorf("Expected no changes against snapshot, got: %s", strings.Join(changes, ", "))
	}
}

// AssertPatchPaths checks that patch touches exactly paths, in order.
func AssertPatchPaths(t TB, patch pattern.Patch, paths ...string) {
	t.Helper()

	actual := make([]string, 0, len(patch))
	for _, op := range patch {
		actual = append(actual, op.Path)
	}
	if !reflect.DeepEqual(actual, paths) && !(len(actual) == 0 && len(paths) == 0) {
		t.Errorf("Patch paths mismatch:\nExpected: %v\nActual: %v", paths, actual)
	}
}

// AssertUndoRestores executes operation on history, undoes it and checks that
// state reports the same value before and after.
func AssertUndoRestores(t TB, ctx context.Context, history *pattern.CommandHistory, state func() any,
	operation string, args pattern.Args, opts ...pattern.CommandOption) {
	t.Helper()

	before := state()
	if _, err := history.Execute(ctx, operation, args, opts...); err != nil {
		t.Fatalf("Execute %s failed: %v", operation, err)
	}
	if _, err := history.Undo(ctx); err != nil {
		t.Fatalf("Undo %s failed: %v", operation, err)
	}
	if after := state(); !reflect.DeepEqual(before, after) {
		t.Errorf("Undo of %s did not restore state:\nBefore: %+v\nAfter: %+v", operation, before, after)
	}
}

// EventDiff represents a difference between expected and actual events.
type EventDiff struct {
	Index    int
	Expected *pattern.Event
	Actual   *pattern.Event
	Type     DiffType
}

// DiffType represents the type of difference.
type DiffType int

const (
	// DiffMissing indicates an expected event was not present.
	DiffMissing DiffType = iota
	// DiffExtra indicates an unexpected event was present.
	DiffExtra
	// DiffMismatch indicates event data did not match.
	DiffMismatch
)

// String returns a human-readable representation of the diff type.
func (d DiffType) String() string {
	switch d {
	case DiffMissing:
		return "missing"
	case DiffExtra:
		return "extra"
	case DiffMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// DiffEvents compares two event logs by operation, arguments and version.
// Timestamps are ignored.
func DiffEvents(expected, actual []pattern.Event) []EventDiff {
	var diffs []EventDiff

	maxLen := len(expected)
	if len(actual) > maxLen {
		maxLen = len(actual)
	}

	for i := 0; i < maxLen; i++ {
		switch {
		case i >= len(expected):
			diffs = append(diffs, EventDiff{Index: i, Actual: &actual[i], Type: DiffExtra})
		case i >= len(actual):
			diffs = append(diffs, EventDiff{Index: i, Expected: &expected[i], Type: DiffMissing})
		case !sameEvent(expected[i], actual[i]):
			diffs = append(diffs, EventDiff{
				Index:    i,
				Expected: &expected[i],
				Actual:   &actual[i],
				Type:     DiffMismatch,
			})
		}
	}

	return diffs
}

// FormatDiffs formats event diffs as a human-readable string.
func FormatDiffs(diffs []EventDiff) string {
	if len(diffs) == 0 {
		return "no differences"
	}

	var buf strings.Builder
	buf.WriteString("Event differences:\n")

	for _, diff := range diffs {
		buf.WriteString(formatDiff(diff))
	}

	return buf.String()
}

func formatDiff(diff EventDiff) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("  Event %d (%s):\n", diff.Index, diff.Type))

	switch diff.Type {
	case DiffExtra:
		buf.WriteString(fmt.Sprintf("    + %s (unexpected)\n", formatEvent(*diff.Actual)))
	case DiffMissing:
		buf.WriteString(fmt.Sprintf("    - %s (missing)\n", formatEvent(*diff.Expected)))
	case DiffMismatch:
		buf.WriteString(fmt.Sprintf("    - %s\n", formatEvent(*diff.Expected)))
		buf.WriteString(fmt.Sprintf("    + %s\n", formatEvent(*diff.Actual)))
	}

	return buf.String()
}

func formatEvent(e pattern.Event) string {
	return fmt.Sprintf("v%d %s%v", e.Version, e.Operation, []any(e.Args))
}

// AssertEventsEqual compares two event logs and fails if they differ.
func AssertEventsEqual(t TB, expected, actual []pattern.Event) {
	t.Helper()

	diffs := DiffEvents(expected, actual)
	if len(diffs) > 0 {
		t.Error(FormatDiffs(diffs))
	}
}

// EventMatcher is a function that checks if an event matches certain criteria.
type EventMatcher func(event pattern.Event) bool

// MatchOperation returns a matcher that checks for a specific operation.
func MatchOperation(operation string) EventMatcher {
	return func(event pattern.Event) bool {
		return event.Operation == operation
	}
}

// MatchEvent returns a matcher that checks operation and arguments.
func MatchEvent(operation string, args ...any) EventMatcher {
	return func(event pattern.Event) bool {
		return event.Operation == operation && sameArgs(event.Args, args)
	}
}

// AssertAnyMatch checks that at least one event matches the matcher.
func AssertAnyMatch(t TB, events []pattern.Event, matcher EventMatcher) {
	t.Helper()

	for _, event := range events {
		if matcher(event) {
			return
		}
	}

	t.Error("No event matched the criteria")
}

// AssertNoneMatch checks that no events match the matcher.
func AssertNoneMatch(t TB, events []pattern.Event, matcher EventMatcher) {
	t.Helper()

	for i, event := range events {
		if matcher(event) {
			t.Errorf("Event %d unexpectedly matched: %s", i, formatEvent(event))
		}
	}
}

// CountMatches returns the number of events that match the matcher.
func CountMatches(events []pattern.Event, matcher EventMatcher) int {
	count := 0
	for _, event := range events {
		if matcher(event) {
			count++
		}
	}
	return count
}

// FilterEvents returns events that match the matcher.
func FilterEvents(events []pattern.Event, matcher EventMatcher) []pattern.Event {
	var result []pattern.Event
	for _, event := range events {
		if matcher(event) {
			result = append(result, event)
		}
	}
	return result
}

func sameEvent(a, b pattern.Event) bool {
	return a.Operation == b.Operation && a.Version == b.Version && sameArgs(a.Args, b.Args)
}

// sameArgs treats nil and empty argument lists as equal.
func sameArgs(a, b []any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func operationList(events []pattern.Event) string {
	ops := make([]string, 0, len(events))
	for _, e := range events {
		ops = append(ops, e.Operation)
	}
	return strings.Join(ops, ", ")
}
