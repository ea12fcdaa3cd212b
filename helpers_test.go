package pattern

// helpers_test.go contains shared test doubles and fixtures for package tests.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// Shared Test Logger
// =============================================================================

type testLogger struct {
	mu        sync.Mutex
	debugLogs []string
	infoLogs  []string
	warnLogs  []string
	errorLogs []string
}

func newTestLogger() *testLogger {
	return &testLogger{}
}

func (l *testLogger) Debug(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugLogs = append(l.debugLogs, msg)
}

func (l *testLogger) Info(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLogs = append(l.infoLogs, msg)
}

func (l *testLogger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnLogs = append(l.warnLogs, msg)
}

func (l *testLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLogs = append(l.errorLogs, msg)
}

// =============================================================================
// Counter: a plain command target
// =============================================================================

var errBoom = errors.New("boom")

type counter struct {
	sum   int
	calls []string
}

var counterOps = NewOperationTable[*counter]().
	Register("incr", Op0(func(_ context.Context, c *counter) error {
		c.sum++
		c.calls = append(c.calls, "incr")
		return nil
	})).
	Register("decr", Op0(func(_ context.Context, c *counter) error {
		c.sum--
		c.calls = append(c.calls, "decr")
		return nil
	})).
	Register("add", Op1(func(_ context.Context, c *counter, n int) error {
		c.sum += n
		c.calls = append(c.calls, "add")
		return nil
	})).
	RegisterFunc("sum", func(_ context.Context, c *counter, _ Args) (any, error) {
		return c.sum, nil
	}).
	RegisterFunc("fail", func(_ context.Context, c *counter, _ Args) (any, error) {
		c.calls = append(c.calls, "fail")
		return nil, errBoom
	}).
	RegisterFunc("explode", func(_ context.Context, _ *counter, _ Args) (any, error) {
		panic("kaboom")
	}).
	RegisterFunc("wait", func(ctx context.Context, c *counter, _ Args) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			c.sum++
			return c.sum, nil
		}
	})

// observed wraps a dispatcher and records execute notifications.
type observed struct {
	Dispatcher
	seen []string
	args []Args
}

func (o *observed) ObserveExecute(operation string, args Args) {
	o.seen = append(o.seen, operation)
	o.args = append(o.args, args)
}

// settled also records how each observed invocation ended.
type settled struct {
	observed
	results []error
}

func (s *settled) ObserveResult(_ string, _ Args, err error) {
	s.results = append(s.results, err)
}

// =============================================================================
// Point: an EventSourced whose operations push their own events
// =============================================================================

type point struct {
	EventSourced
	applied []int64
}

var pointOps = NewOperationTable[*point]().
	Register("incrementX", Op0(func(_ context.Context, p *point) error {
		p.IncrementX()
		return nil
	})).
	Register("moveTo", Op2(func(_ context.Context, p *point, x, y int) error {
		p.MoveTo(x, y)
		return nil
	})).
	Register("slowIncrement", Op1(func(ctx context.Context, p *point, delay time.Duration) error {
		done := make(chan struct{})
		go func() {
			time.Sleep(delay)
			close(done)
		}()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
		p.applied = append(p.applied, delay.Milliseconds())
		p.IncrementX()
		return nil
	})).
	RegisterFunc("reject", func(_ context.Context, _ *point, _ Args) (any, error) {
		return nil, errBoom
	})

// money keeps its state unexported, like decimal and currency types do.
type money struct {
	cents    int64
	currency string
}

func (m money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.cents/100, m.cents%100, m.currency)
}

func fixedIdentity(id string) IdentityGenerator {
	return IdentityFunc(func() string { return id })
}

func newPoint(snapshot Snapshot, events []Event) *point {
	p := &point{}
	p.Configure(WithIdentityGenerator(fixedIdentity("point-1")))
	p.Init(snapshot, events)
	p.Bind(pointOps.Bind(p))
	return p
}

func (p *point) X() int {
	x, _ := Convert[int](p.Get("x"))
	return x
}

func (p *point) IncrementX() {
	p.Push("incrementX")
	p.Set("x", p.X()+1)
}

func (p *point) MoveTo(x, y int) {
	p.Push("moveTo", x, y)
	p.Set("x", x)
	p.Set("y", y)
}
