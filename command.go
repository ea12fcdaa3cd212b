package pattern

import (
	"context"
	"fmt"
)

// Command is a single undoable unit of work bound to a target and two named
// operations with fixed argument lists.
type Command struct {
	target      Dispatcher
	executeOp   Operation
	executeArgs Args
	undoOp      Operation
	undoArgs    Args
	undoable    bool
}

// CommandOption configures a Command.
type CommandOption func(*commandConfig)

type commandConfig struct {
	undoOp   string
	undoArgs Args
	hasUndo  bool
}

// WithUndo sets the operation that reverts the command.
func WithUndo(operation string, args Args) CommandOption {
	return func(c *commandConfig) {
		c.undoOp = operation
		c.undoArgs = args
		c.hasUndo = true
	}
}

// NewCommand builds a command against target. It fails with a
// ConfigurationError if an operation does not resolve or its arguments do
// not match the declared arity.
func NewCommand(target Dispatcher, executeOp string, executeArgs Args, opts ...CommandOption) (*Command, error) {
	if target == nil {
		return nil, NewConfigurationError(executeOp, "nil target")
	}

	cfg := commandConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	exec, err := resolveOperation(target, executeOp, executeArgs)
	if err != nil {
		return nil, err
	}

	cmd := &Command{
		target:      target,
		executeOp:   exec,
		executeArgs: normalizeArgs(executeArgs),
		undoArgs:    Args{},
	}

	if cfg.hasUndo {
		undo, err := resolveOperation(target, cfg.undoOp, cfg.undoArgs)
		if err != nil {
			return nil, err
		}
		cmd.undoOp = undo
		cmd.undoArgs = normalizeArgs(cfg.undoArgs)
		cmd.undoable = true
	}

	return cmd, nil
}

func resolveOperation(target Dispatcher, name string, args Args) (Operation, error) {
	if name == "" {
		return Operation{}, NewConfigurationError(name, "operation name is required")
	}
	op, ok := target.Resolve(name)
	if !ok || op.Invoke == nil {
		return Operation{}, NewConfigurationError(name, "operation not found")
	}
	if op.Arity != AnyArity && op.Arity != len(args) {
		return Operation{}, NewConfigurationError(name,
			fmt.Sprintf("expected %d arguments, got %d", op.Arity, len(args)))
	}
	return op, nil
}

func normalizeArgs(args Args) Args {
	if args == nil {
		return Args{}
	}
	return args
}

// Undoable reports whether the command has an undo operation.
func (c *Command) Undoable() bool {
	return c.undoable
}

// ExecuteOperation returns the name of the execute operation.
func (c *Command) ExecuteOperation() string {
	return c.executeOp.Name
}

// ExecuteArgs returns the execute arguments.
func (c *Command) ExecuteArgs() Args {
	return c.executeArgs
}

// UndoOperation returns the name of the undo operation, or "" if none.
func (c *Command) UndoOperation() string {
	return c.undoOp.Name
}

// UndoArgs returns the undo arguments.
func (c *Command) UndoArgs() Args {
	return c.undoArgs
}

// Execute invokes the execute operation on the target.
// Observers are notified before the operation runs and, if they implement
// ResultObserver, again once it returns or panics.
func (c *Command) Execute(ctx context.Context) (any, error) {
	return c.invoke(ctx, c.executeOp, c.executeArgs)
}

// Undo invokes the undo operation on the target.
func (c *Command) Undo(ctx context.Context) (any, error) {
	if !c.undoable {
		return nil, NewUndoError(c.executeOp.Name)
	}
	return c.invoke(ctx, c.undoOp, c.undoArgs)
}

func (c *Command) invoke(ctx context.Context, op Operation, args Args) (result any, err error) {
	if observer, ok := c.target.(ExecuteObserver); ok {
		observer.ObserveExecute(op.Name, args)
	}
	if observer, ok := c.target.(ResultObserver); ok {
		defer func() {
			if r := recover(); r != nil {
				observer.ObserveResult(op.Name, args, fmt.Errorf("pattern: operation %s panicked: %v", op.Name, r))
				panic(r)
			}
			observer.ObserveResult(op.Name, args, err)
		}()
	}
	return op.Invoke(ctx, args)
}
