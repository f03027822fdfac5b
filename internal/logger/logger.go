// Package logger provides structured, context-aware logging on top of slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Level mirrors slog levels so callers do not import slog directly.
type Level = slog.Level

const (
	LevelDebug Level = slog.LevelDebug
	LevelInfo  Level = slog.LevelInfo
	LevelWarn  Level = slog.LevelWarn
	LevelError Level = slog.LevelError
)

// LoggerInterface is what modules depend on.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// Logger writes JSON records and stamps trace/span ids when the context carries a span.
type Logger struct {
	handler slog.Handler
	log     *slog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

// Attrs are attached to every record emitted by the logger.
type Attrs map[string]any

// New creates a Logger writing to w. A nil writer falls back to stderr.
func New(w io.Writer, level Level, service string, attrs Attrs) *Logger {
	if w == nil {
		w = os.Stderr
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	base := []any{slog.String("service", service)}
	for k, v := range attrs {
		base = append(base, slog.Any(k, v))
	}

	l := slog.New(handler).With(base...)
	return &Logger{handler: handler, log: l}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelDebug, msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelInfo, msg, args)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelWarn, msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelError, msg, args)
}

// With returns a child logger with extra key/value pairs.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{handler: l.handler, log: l.log.With(args...)}
}

func (l *Logger) emit(ctx context.Context, level Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.log.Enabled(ctx, level) {
		return
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		args = append(args,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	l.log.Log(ctx, level, msg, args...)
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return New(io.Discard, LevelError+4, "nop", nil)
}
