// Package logger provides structured logging using log/slog.
// It sets up a JSON handler with service-level context and carries a per-run
// trace ID through context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"signalbot/internal/trace"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Init creates the JSON logger on stdout for service and installs it as the
// slog default, so package-level slog calls share the format.
func Init(service string, level slog.Level) *slog.Logger {
	logger := New(os.Stdout, service, level)
	slog.SetDefault(logger)
	return logger
}

// New creates a JSON logger writing to w with the service attribute set.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", service))
}

// WithTraceID stores a trace ID in the context for downstream propagation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID creates a run ID from the symbol and start time:
// "BTC-USD-{unixNano}".
func GenerateTraceID(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", strings.ReplaceAll(symbol, "/", "-"), ts.UnixNano())
}

// LogWithTrace returns slog attributes for the run trace ID and, when tracing
// is enabled, the active OpenTelemetry span.
// Usage: slog.Info("msg", logger.LogWithTrace(ctx)...)
func LogWithTrace(ctx context.Context) []any {
	var attrs []any
	if tid := TraceID(ctx); tid != "" {
		attrs = append(attrs, slog.String("trace_id", tid))
	}
	if otelTrace, span, ok := trace.IDs(ctx); ok {
		attrs = append(attrs, slog.String("otel_trace_id", otelTrace), slog.String("span_id", span))
	}
	return attrs
}
