package audit

import (
	"context"
	"sync/atomic"
)

// AtomicLogger delegates to an atomically swappable inner logger, so a
// configuration reload can replace the audit destination without
// re-wiring the provider chain that captured the logger at startup.
type AtomicLogger struct {
	current atomic.Pointer[Logger]
}

var _ Logger = (*AtomicLogger)(nil)

var fallbackLogger Logger = &noopLogger{}

// NewAtomicLogger wraps a logger for hot-swapping. A nil initial logger
// starts as a no-op.
func NewAtomicLogger(logger Logger) *AtomicLogger {
	if logger == nil {
		logger = NewNoopLogger()
	}
	a := &AtomicLogger{}
	a.current.Store(&logger)
	return a
}

// Load returns the current delegate.
func (a *AtomicLogger) Load() Logger {
	if p := a.current.Load(); p != nil {
		return *p
	}
	return fallbackLogger
}

// Swap replaces the delegate and returns the previous one so the caller
// can close it.
func (a *AtomicLogger) Swap(logger Logger) Logger {
	if logger == nil {
		logger = NewNoopLogger()
	}
	previous := a.current.Swap(&logger)
	if previous == nil {
		return fallbackLogger
	}
	return *previous
}

// LogEvent delegates to the current logger.
func (a *AtomicLogger) LogEvent(ctx context.Context, event *Event) {
	a.Load().LogEvent(ctx, event)
}

// Close closes the current logger.
func (a *AtomicLogger) Close() error {
	return a.Load().Close()
}
