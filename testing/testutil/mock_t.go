package testutil

import (
	"fmt"
	"runtime"
	"testing"
)

// MockT is a testing.TB that records failures instead of reporting them, for
// testing assertion helpers and fixtures. Fatal, FailNow and Skip end the
// calling goroutine, so run code under test with RunWithMockT.
type MockT struct {
	testing.TB // unexported methods only
	Failed_    bool
	Fatal_     bool
	Skipped_   bool
	// Message is the most recent failure message; Messages holds all of them.
	Message  string
	Messages []string
	Logs     []string
	cleanups []func()
}

// NewMockT creates a new MockT instance.
func NewMockT() *MockT {
	return &MockT{Logs: make([]string, 0)}
}

func (m *MockT) record(msg string) {
	m.Failed_ = true
	m.Message = msg
	m.Messages = append(m.Messages, msg)
}

// Helper implements testing.TB.
func (m *MockT) Helper() {}

// Name implements testing.TB.
func (m *MockT) Name() string { return "MockT" }

// Error implements testing.TB.
func (m *MockT) Error(args ...any) { m.record(fmt.Sprint(args...)) }

// Errorf implements testing.TB.
func (m *MockT) Errorf(format string, args ...any) { m.record(fmt.Sprintf(format, args...)) }

// Log implements testing.TB.
func (m *MockT) Log(args ...any) { m.Logs = append(m.Logs, fmt.Sprint(args...)) }

// Logf implements testing.TB.
func (m *MockT) Logf(format string, args ...any) {
	m.Logs = append(m.Logs, fmt.Sprintf(format, args...))
}

// Fail implements testing.TB.
func (m *MockT) Fail() { m.Failed_ = true }

// FailNow implements testing.TB.
func (m *MockT) FailNow() {
	m.Failed_ = true
	m.Fatal_ = true
	runtime.Goexit()
}

// Failed implements testing.TB.
func (m *MockT) Failed() bool { return m.Failed_ }

// Fatal implements testing.TB.
func (m *MockT) Fatal(args ...any) {
	m.record(fmt.Sprint(args...))
	m.FailNow()
}

// Fatalf implements testing.TB.
func (m *MockT) Fatalf(format string, args ...any) {
	m.record(fmt.Sprintf(format, args...))
	m.FailNow()
}

// Skip implements testing.TB.
func (m *MockT) Skip(args ...any) {
	m.Log(args...)
	m.SkipNow()
}

// Skipf implements testing.TB.
func (m *MockT) Skipf(format string, args ...any) {
	m.Logf(format, args...)
	m.SkipNow()
}

// SkipNow implements testing.TB.
func (m *MockT) SkipNow() {
	m.Skipped_ = true
	runtime.Goexit()
}

// Skipped implements testing.TB.
func (m *MockT) Skipped() bool { return m.Skipped_ }

// Cleanup implements testing.TB. Functions run in reverse order once the
// function passed to RunWithMockT returns.
func (m *MockT) Cleanup(fn func()) { m.cleanups = append(m.cleanups, fn) }

// RunWithMockT runs fn on its own goroutine with a fresh MockT and waits for
// it to finish or exit through Fatal, FailNow or Skip.
func RunWithMockT(fn func(m *MockT)) *MockT {
	mt := NewMockT()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			for i := len(mt.cleanups) - 1; i >= 0; i-- {
				mt.cleanups[i]()
			}
		}()
		fn(mt)
	}()
	<-done
	return mt
}
