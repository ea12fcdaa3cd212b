package pattern

import (
	"context"
	"fmt"
	"sort"
)

// AnyArity marks an operation that accepts any number of arguments.
const AnyArity = -1

// Handler runs an operation on a target of type T.
type Handler[T any] interface {
	Handle(ctx context.Context, target T, args Args) (any, error)
}

// OperationFunc adapts a plain function to a Handler. It accepts any number
// of arguments unless registered WithArity.
type OperationFunc[T any] func(ctx context.Context, target T, args Args) (any, error)

// Handle calls f.
func (f OperationFunc[T]) Handle(ctx context.Context, target T, args Args) (any, error) {
	return f(ctx, target, args)
}

// TypedOperation is a Handler with a fixed arity, built by Op0, Op1 and Op2.
type TypedOperation[T any] struct {
	fn    OperationFunc[T]
	arity int
}

// Handle calls the adapted method.
func (o *TypedOperation[T]) Handle(ctx context.Context, target T, args Args) (any, error) {
	return o.fn(ctx, target, args)
}

// Arity returns the number of arguments the adapted method takes.
func (o *TypedOperation[T]) Arity() int {
	return o.arity
}

// Operation is an operation bound to a concrete target.
type Operation struct {
	Name   string
	Arity  int
	Invoke func(ctx context.Context, args Args) (any, error)
}

// Dispatcher resolves operation names against a bound target.
// Commands and replay only ever reach a target through a Dispatcher.
type Dispatcher interface {
	Resolve(name string) (Operation, bool)
}

// ExecuteObserver is implemented by dispatchers that want to be told about a
// command invocation before it runs.
type ExecuteObserver interface {
	ObserveExecute(operation string, args Args)
}

// ResultObserver is implemented by dispatchers that want to know how an
// observed invocation ended. err is nil on success.
type ResultObserver interface {
	ObserveResult(operation string, args Args, err error)
}

type operationEntry[T any] struct {
	handler Handler[T]
	arity   int
}

// OperationOption configures a registered operation.
type OperationOption func(*operationConfig)

type operationConfig struct {
	arity int
}

// WithArity declares the exact number of arguments the operation takes,
// overriding the arity of a TypedOperation. Commands built with a different
// number of arguments fail with ConfigurationError.
func WithArity(n int) OperationOption {
	return func(c *operationConfig) {
		c.arity = n
	}
}

// OperationTable is the closed set of operations available on type T.
// Build it once per type, typically in a package-level variable.
type OperationTable[T any] struct {
	ops map[string]operationEntry[T]
}

// NewOperationTable creates an empty operation table.
func NewOperationTable[T any]() *OperationTable[T] {
	return &OperationTable[T]{ops: make(map[string]operationEntry[T])}
}

// Register adds a named operation. The arity is taken from handlers that
// report one (Op0, Op1, Op2) and defaults to AnyArity otherwise.
//
// It panics on an empty name, a nil handler or a duplicate registration,
// since tables are built at init time.
func (t *OperationTable[T]) Register(name string, h Handler[T], opts ...OperationOption) *OperationTable[T] {
	if name == "" {
		panic("pattern: operation name is required")
	}
	if h == nil {
		panic(fmt.Sprintf("pattern: operation %q has nil handler", name))
	}
	if _, exists := t.ops[name]; exists {
		panic(fmt.Sprintf("pattern: operation %q already registered", name))
	}
	cfg := operationConfig{arity: AnyArity}
	if typed, ok := h.(interface{ Arity() int }); ok {
		cfg.arity = typed.Arity()
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	t.ops[name] = operationEntry[T]{handler: h, arity: cfg.arity}
	return t
}

// RegisterFunc registers a plain function as an operation.
func (t *OperationTable[T]) RegisterFunc(name string, fn func(ctx context.Context, target T, args Args) (any, error), opts ...OperationOption) *OperationTable[T] {
	if fn == nil {
		panic(fmt.Sprintf("pattern: operation %q has nil handler", name))
	}
	return t.Register(name, OperationFunc[T](fn), opts...)
}

// Has reports whether name is registered.
func (t *OperationTable[T]) Has(name string) bool {
	_, ok := t.ops[name]
	return ok
}

// Lookup returns the handler registered under name.
func (t *OperationTable[T]) Lookup(name string) (Handler[T], bool) {
	entry, ok := t.ops[name]
	return entry.handler, ok
}

// Names returns the registered operation names in sorted order.
func (t *OperationTable[T]) Names() []string {
	names := make([]string, 0, len(t.ops))
	for name := range t.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind returns a Dispatcher that invokes operations on target.
func (t *OperationTable[T]) Bind(target T) Dispatcher {
	return &boundTable[T]{table: t, target: target}
}

type boundTable[T any] struct {
	table  *OperationTable[T]
	target T
}

func (b *boundTable[T]) Resolve(name string) (Operation, bool) {
	entry, ok := b.table.ops[name]
	if !ok {
		return Operation{}, false
	}
	target := b.target
	return Operation{
		Name:  name,
		Arity: entry.arity,
		Invoke: func(ctx context.Context, args Args) (any, error) {
			return entry.handler.Handle(ctx, target, args)
		},
	}, true
}

// Op0 adapts a method without arguments.
func Op0[T any](fn func(ctx context.Context, target T) error) *TypedOperation[T] {
	return &TypedOperation[T]{arity: 0, fn: func(ctx context.Context, target T, _ Args) (any, error) {
		return nil, fn(ctx, target)
	}}
}

// Op1 adapts a method taking one typed argument.
func Op1[T, A any](fn func(ctx context.Context, target T, a A) error) *TypedOperation[T] {
	return &TypedOperation[T]{arity: 1, fn: func(ctx context.Context, target T, args Args) (any, error) {
		a, err := Arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, fn(ctx, target, a)
	}}
}

// Op2 adapts a method taking two typed arguments.
func Op2[T, A, B any](fn func(ctx context.Context, target T, a A, b B) error) *TypedOperation[T] {
	return &TypedOperation[T]{arity: 2, fn: func(ctx context.Context, target T, args Args) (any, error) {
		a, err := Arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := Arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return nil, fn(ctx, target, a, b)
	}}
}
