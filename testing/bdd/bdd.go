// Package bdd provides BDD-style test fixtures for event-sourced entities
// and command histories. It enables expressive Given-When-Then tests of
// operations and their undo behavior.
package bdd

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/AshkanYarmoradi/go-pattern"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// E builds an expected or given event. Versions are assigned by the fixture.
func E(operation string, args ...any) pattern.Event {
	return pattern.Event{Operation: operation, Args: args}
}

// TestFixture provides BDD-style testing for event-sourced entities.
type TestFixture struct {
	t           TB
	ctx         context.Context
	entity      pattern.Sourced
	givenEvents []pattern.Event
	result      error
	executed    bool
}

// Given sets up the entity with historical events. They are replayed and
// folded into the snapshot before When runs, so only new events are checked.
func Given(t TB, entity pattern.Sourced, events ...pattern.Event) *TestFixture {
	t.Helper()
	return &TestFixture{
		t:           t,
		ctx:         context.Background(),
		entity:      entity,
		givenEvents: events,
	}
}

// WithContext sets the context used to replay the given events.
func (f *TestFixture) WithContext(ctx context.Context) *TestFixture {
	f.ctx = ctx
	return f
}

// When runs an action against the entity. The action should call the
// entity's operations and return any error.
func (f *TestFixture) When(action func() error) *TestFixture {
	f.t.Helper()

	if len(f.givenEvents) > 0 {
		base := f.entity.Snapshot()
		events := make([]pattern.Event, len(f.givenEvents))
		for i, e := range f.givenEvents {
			e.Version = base.Version() + int64(i) + 1
			events[i] = e
		}
		f.entity.Init(base, events)
		if err := f.entity.Replay(f.ctx); err != nil {
			f.t.Fatalf("Failed to replay given events: %v", err)
		}
	}
	if _, err := f.entity.BuildSnapshot(); err != nil {
		f.t.Fatalf("Failed to fold given events: %v", err)
	}

	f.result = action()
	f.executed = true

	return f
}

// Then asserts that the action logged the expected events, comparing
// operations and arguments.
func (f *TestFixture) Then(expectedEvents ...pattern.Event) *TestFixture {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: Then() must be called after When() - no action was run")
	}

	if f.result != nil {
		f.t.Fatalf("Expected success but got error: %v", f.result)
	}

	actual := f.entity.Events()
	if len(actual) != len(expectedEvents) {
		f.t.Fatalf("Expected %d events, got %d.\nExpected: %s\nActual: %s",
			len(expectedEvents), len(actual), describe(expectedEvents), describe(actual))
	}

	for i, expected := range expectedEvents {
		if expected.Operation != actual[i].Operation || !sameArgs(expected.Args, actual[i].Args) {
			f.t.Errorf("Event %d mismatch:\nExpected: %s%v\nActual: %s%v",
				i, expected.Operation, []any(expected.Args), actual[i].Operation, []any(actual[i].Args))
		}
	}

	return f
}

// ThenError asserts that the action failed with the expected error.
func (f *TestFixture) ThenError(expectedErr error) {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenError() must be called after When() - no action was run")
	}

	if f.result == nil {
		f.t.Fatal("Expected error but got success")
	}

	if !errors.Is(f.result, expectedErr) {
		f.t.Errorf("Expected error %v, got %v", expectedErr, f.result)
	}
}

// ThenErrorContains asserts that the error message contains a substring.
func (f *TestFixture) ThenErrorContains(substring string) {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenErrorContains() must be called after When() - no action was run")
	}

	if f.result == nil {
		f.t.Fatal("Expected error but got success")
	}

	if !strings.Contains(f.result.Error(), substring) {
		f.t.Errorf("Expected error containing %q, got %q", substring, f.result.Error())
	}
}

// ThenNoEvents asserts that the action succeeded without logging events.
func (f *TestFixture) ThenNoEvents() {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenNoEvents() must be called after When() - no action was run")
	}

	if f.result != nil {
		f.t.Fatalf("Expected success but got error: %v", f.result)
	}

	if events := f.entity.Events(); len(events) > 0 {
		f.t.Errorf("Expected no events, got %d: %s", len(events), describe(events))
	}
}

// ThenVersion asserts the entity version after the action.
func (f *TestFixture) ThenVersion(expected int64) *TestFixture {
	f.t.Helper()

	if got := f.entity.Version(); got != expected {
		f.t.Errorf("Expected version %d, got %d", expected, got)
	}

	return f
}

// ThenState runs check against the fixture's test handle.
func (f *TestFixture) ThenState(check func(t TB)) *TestFixture {
	f.t.Helper()
	check(f.t)
	return f
}

// =============================================================================
// Command History Fixture
// =============================================================================

// CommandTestFixture provides BDD-style testing of a command history.
type CommandTestFixture struct {
	t        TB
	ctx      context.Context
	history  *pattern.CommandHistory
	result   any
	err      error
	executed bool
}

// GivenCommands creates a command fixture over history.
func GivenCommands(t TB, history *pattern.CommandHistory) *CommandTestFixture {
	t.Helper()
	return &CommandTestFixture{
		t:       t,
		ctx:     context.Background(),
		history: history,
	}
}

// WithContext sets a custom context for the command invocations.
func (f *CommandTestFixture) WithContext(ctx context.Context) *CommandTestFixture {
	f.ctx = ctx
	return f
}

// WithExecuted executes a command as part of the given state.
func (f *CommandTestFixture) WithExecuted(operation string, args pattern.Args, opts ...pattern.CommandOption) *CommandTestFixture {
	f.t.Helper()
	if _, err := f.history.Execute(f.ctx, operation, args, opts...); err != nil {
		f.t.Fatalf("Failed to execute given command %s: %v", operation, err)
	}
	return f
}

// When executes a command.
func (f *CommandTestFixture) When(operation string, args pattern.Args, opts ...pattern.CommandOption) *CommandTestFixture {
	f.t.Helper()
	f.result, f.err = f.history.Execute(f.ctx, operation, args, opts...)
	f.executed = true
	return f
}

// WhenUndo undoes the last done command.
func (f *CommandTestFixture) WhenUndo() *CommandTestFixture {
	f.t.Helper()
	f.result, f.err = f.history.Undo(f.ctx)
	f.executed = true
	return f
}

// WhenRedo redoes the last undone command.
func (f *CommandTestFixture) WhenRedo() *CommandTestFixture {
	f.t.Helper()
	f.result, f.err = f.history.Redo(f.ctx)
	f.executed = true
	return f
}

// ThenSucceeds asserts the invocation succeeded.
func (f *CommandTestFixture) ThenSucceeds() *CommandTestFixture {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenSucceeds() must be called after When() - no command was invoked")
	}

	if f.err != nil {
		f.t.Fatalf("Expected success but got error: %v", f.err)
	}

	return f
}

// ThenFails asserts the invocation failed with the expected error.
func (f *CommandTestFixture) ThenFails(expectedErr error) {
	f.t.Helper()

	if !f.executed {
		f.t.Fatal("bdd: ThenFails() must be called after When() - no command was invoked")
	}

	if f.err == nil {
		f.t.Fatal("Expected failure but got success")
	}

	if !errors.Is(f.err, expectedErr) {
		f.t.Errorf("Expected error %v, got %v", expectedErr, f.err)
	}
}

// ThenReturns asserts the invocation result.
func (f *CommandTestFixture) ThenReturns(expected any) *CommandTestFixture {
	f.t.Helper()

	if !reflect.DeepEqual(f.result, expected) {
		f.t.Errorf("Expected result %v, got %v", expected, f.result)
	}

	return f
}

// ThenCursor asserts the history cursor.
func (f *CommandTestFixture) ThenCursor(expected int) *CommandTestFixture {
	f.t.Helper()

	if got := f.history.Cursor(); got != expected {
		f.t.Errorf("Expected cursor %d, got %d", expected, got)
	}

	return f
}

// ThenLen asserts the number of recorded commands.
func (f *CommandTestFixture) ThenLen(expected int) *CommandTestFixture {
	f.t.Helper()

	if got := f.history.Len(); got != expected {
		f.t.Errorf("Expected %d recorded commands, got %d", expected, got)
	}

	return f
}

func sameArgs(a, b []any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func describe(events []pattern.Event) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, e.Operation)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
