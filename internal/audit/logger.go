package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
)

// Logger is the audit trail sink.
type Logger interface {
	// LogEvent records one audit event. It never fails the operation
	// being audited.
	LogEvent(ctx context.Context, event *Event)

	// Close releases the underlying writer.
	Close() error
}

// logger writes events as JSON lines.
type logger struct {
	enabled bool
	writer  io.Writer
	closer  io.Closer
	mu      sync.Mutex
	logger  observability.Logger
	metrics *Metrics
}

var _ Logger = (*logger)(nil)

// LoggerOption configures the audit logger.
type LoggerOption func(*logger)

// WithLoggerLogger sets the diagnostic logger for write failures.
func WithLoggerLogger(l observability.Logger) LoggerOption {
	return func(lg *logger) {
		if l != nil {
			lg.logger = l
		}
	}
}

// WithLoggerWriter replaces the configured output writer.
func WithLoggerWriter(w io.Writer) LoggerOption {
	return func(lg *logger) {
		lg.writer = w
	}
}

// WithLoggerMetrics sets the event counter.
func WithLoggerMetrics(m *Metrics) LoggerOption {
	return func(lg *logger) {
		lg.metrics = m
	}
}

// NewLogger creates an audit logger from configuration.
func NewLogger(cfg *config.AuditConfig, opts ...LoggerOption) (Logger, error) {
	if cfg == nil {
		return NewNoopLogger(), nil
	}

	l := &logger{
		enabled: cfg.Enabled,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.metrics == nil {
		l.metrics = NewMetrics()
	}

	if l.writer == nil {
		writer, closer, err := createWriter(cfg)
		if err != nil {
			return nil, err
		}
		l.writer = writer
		l.closer = closer
	}

	return l, nil
}

// createWriter opens the configured output destination.
func createWriter(cfg *config.AuditConfig) (io.Writer, io.Closer, error) {
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("audit output is file but filePath is empty")
		}
		//nolint:gosec // G304: path comes from trusted configuration
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit log file: %w", err)
		}
		return file, file, nil
	default:
		return nil, nil, fmt.Errorf("unknown audit output %q", cfg.Output)
	}
}

// LogEvent records one event.
func (l *logger) LogEvent(ctx context.Context, event *Event) {
	if !l.enabled || event == nil {
		return
	}

	if event.TraceID == "" {
		event.TraceID = extractTraceID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = observability.RequestIDFromContext(ctx)
	}

	l.metrics.RecordEvent(event.Action, event.Outcome)
	l.writeEvent(event)
}

func (l *logger) writeEvent(event *Event) {
	output, err := json.Marshal(event)
	if err != nil {
		l.logger.Error("failed to marshal audit event", observability.Error(err))
		return
	}
	output = append(output, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.writer.Write(output); err != nil {
		l.logger.Error("failed to write audit event", observability.Error(err))
	}
}

// Close closes the output when the logger owns it.
func (l *logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// extractTraceID returns the trace id of the active span, if any.
func extractTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// noopLogger drops all events.
type noopLogger struct{}

// NewNoopLogger creates an audit logger that discards everything.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *noopLogger) LogEvent(_ context.Context, _ *Event) {}

func (l *noopLogger) Close() error { return nil }

var _ Logger = (*noopLogger)(nil)
