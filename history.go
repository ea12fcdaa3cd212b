package pattern

import (
	"context"
	"time"
)

// HistoryEntry is an executed command and the time it was recorded.
type HistoryEntry struct {
	Timestamp time.Time
	Command   *Command
}

// CommandHistory is an undo/redo stack of commands executed against one target.
//
// entries[0..cursor] are done; anything beyond cursor has been undone and is
// dropped by the next Execute. CommandHistory is not safe for concurrent use.
type CommandHistory struct {
	target     Dispatcher
	entries    []HistoryEntry
	cursor     int
	logger     Logger
	middleware []Middleware
	now        func() time.Time
}

// HistoryOption configures a CommandHistory.
type HistoryOption func(*CommandHistory)

// WithHistoryLogger sets a custom logger.
func WithHistoryLogger(l Logger) HistoryOption {
	return func(h *CommandHistory) {
		h.logger = loggerOrNop(l)
	}
}

// WithHistoryMiddleware adds middleware around every invocation.
func WithHistoryMiddleware(m ...Middleware) HistoryOption {
	return func(h *CommandHistory) {
		h.middleware = append(h.middleware, m...)
	}
}

// WithClock overrides the clock used for entry timestamps.
func WithClock(now func() time.Time) HistoryOption {
	return func(h *CommandHistory) {
		h.now = now
	}
}

// NewCommandHistory creates an empty history scoped to target.
func NewCommandHistory(target Dispatcher, opts ...HistoryOption) *CommandHistory {
	h := &CommandHistory{
		target: target,
		cursor: -1,
		logger: NopLogger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Use appends middleware to the chain.
func (h *CommandHistory) Use(m ...Middleware) {
	h.middleware = append(h.middleware, m...)
}

// Execute builds and runs a command, then records it. A command that fails
// is not recorded.
func (h *CommandHistory) Execute(ctx context.Context, operation string, args Args, opts ...CommandOption) (any, error) {
	cmd, err := NewCommand(h.target, operation, args, opts...)
	if err != nil {
		return nil, err
	}

	result, err := h.run(ctx, KindExecute, cmd.ExecuteOperation(), cmd.ExecuteArgs(), cmd.Execute)
	if err != nil {
		return nil, err
	}

	h.push(cmd)
	return result, nil
}

// Undo reverts the command at the cursor. It returns (nil, nil) without
// changes when there is nothing to undo.
func (h *CommandHistory) Undo(ctx context.Context) (any, error) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return nil, nil
	}
	cmd := h.entries[h.cursor].Command

	result, err := h.run(ctx, KindUndo, cmd.UndoOperation(), cmd.UndoArgs(), cmd.Undo)
	if err != nil {
		return nil, err
	}

	h.cursor--
	return result, nil
}

// Redo re-executes the command after the cursor. It returns (nil, nil)
// without changes when there is nothing to redo.
func (h *CommandHistory) Redo(ctx context.Context) (any, error) {
	next := h.cursor + 1
	if next >= len(h.entries) {
		return nil, nil
	}
	cmd := h.entries[next].Command

	result, err := h.run(ctx, KindRedo, cmd.ExecuteOperation(), cmd.ExecuteArgs(), cmd.Execute)
	if err != nil {
		return nil, err
	}

	h.cursor = next
	return result, nil
}

// Last returns the most recently appended entry.
//
// This follows append order, not the cursor: after an Undo it still returns
// the undone entry. Use Current for the entry at the cursor.
func (h *CommandHistory) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Current returns the entry at the cursor, i.e. the next one Undo would revert.
func (h *CommandHistory) Current() (HistoryEntry, bool) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return HistoryEntry{}, false
	}
	return h.entries[h.cursor], true
}

// Cursor returns the index of the last done entry, or -1.
func (h *CommandHistory) Cursor() int {
	return h.cursor
}

// Len returns the number of recorded entries, including undone ones.
func (h *CommandHistory) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the recorded entries.
func (h *CommandHistory) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// CanUndo reports whether Undo would do anything.
func (h *CommandHistory) CanUndo() bool {
	return h.cursor >= 0 && h.cursor < len(h.entries)
}

// CanRedo reports whether Redo would do anything.
func (h *CommandHistory) CanRedo() bool {
	return h.cursor+1 < len(h.entries)
}

// Clear drops every entry and resets the cursor.
func (h *CommandHistory) Clear() {
	h.entries = nil
	h.cursor = -1
}

func (h *CommandHistory) push(cmd *Command) {
	h.cursor++
	h.entries = append(h.entries[:h.cursor], HistoryEntry{
		Timestamp: h.now(),
		Command:   cmd,
	})
	h.logger.Debug("Command recorded",
		"operation", cmd.ExecuteOperation(),
		"cursor", h.cursor,
		"entries", len(h.entries),
	)
}

func (h *CommandHistory) run(ctx context.Context, kind InvocationKind, operation string, args Args, fn func(context.Context) (any, error)) (any, error) {
	var chain MiddlewareFunc = func(ctx context.Context, _ Invocation) (any, error) {
		return fn(ctx)
	}
	for i := len(h.middleware) - 1; i >= 0; i-- {
		chain = h.middleware[i](chain)
	}
	return chain(ctx, Invocation{Kind: kind, Operation: operation, Args: args})
}
