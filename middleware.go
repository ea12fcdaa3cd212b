package pattern

import (
	"context"
	"runtime/debug"
	"time"
)

// InvocationKind identifies which history operation triggered an invocation.
type InvocationKind string

// Invocation kinds.
const (
	KindExecute InvocationKind = "execute"
	KindUndo    InvocationKind = "undo"
	KindRedo    InvocationKind = "redo"
)

// Invocation describes a command invocation passing through the middleware chain.
type Invocation struct {
	Kind      InvocationKind
	Operation string
	Args      Args
}

// MiddlewareFunc runs an invocation.
type MiddlewareFunc func(ctx context.Context, inv Invocation) (any, error)

// Middleware wraps a MiddlewareFunc with additional functionality.
type Middleware func(next MiddlewareFunc) MiddlewareFunc

// ChainMiddleware creates a single middleware from multiple middleware.
// The first middleware is the outermost.
func ChainMiddleware(middleware ...Middleware) Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		for i := len(middleware) - 1; i >= 0; i-- {
			next = middleware[i](next)
		}
		return next
	}
}

// RecoveryMiddleware converts panics raised by operations into PanicError.
func RecoveryMiddleware() Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, inv Invocation) (result any, err error) {
			defer func() {
				if r := recover(); r != nil {
					result = nil
					err = NewPanicError(inv.Operation, r, string(debug.Stack()))
				}
			}()
			return next(ctx, inv)
		}
	}
}

// LoggingMiddleware logs command invocations.
type LoggingMiddleware struct {
	logger Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(logger Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: loggerOrNop(logger)}
}

// Middleware returns the middleware function.
func (m *LoggingMiddleware) Middleware() Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, inv Invocation) (any, error) {
			start := time.Now()

			m.logger.Debug("Invoking command",
				"kind", inv.Kind,
				"operation", inv.Operation,
			)

			result, err := next(ctx, inv)
			duration := time.Since(start)

			if err != nil {
				m.logger.Error("Command failed",
					"kind", inv.Kind,
					"operation", inv.Operation,
					"duration", duration,
					"error", err,
				)
			} else {
				m.logger.Info("Command completed",
					"kind", inv.Kind,
					"operation", inv.Operation,
					"duration", duration,
				)
			}

			return result, err
		}
	}
}

// TimeoutMiddleware bounds each invocation with a timeout.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, inv Invocation) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, inv)
		}
	}
}
