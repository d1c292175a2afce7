package observe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
// - Redaction: values of credential-like keys are never written.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger

	// WithProbe returns a logger scoped to one probe run.
	WithProbe(meta ProbeMeta) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for Field{Key: key, Value: value}.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel parses a string log level. Unknown values map to info.
func ParseLogLevel(s string) LogLevel {
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

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type slogLogger struct {
	l *slog.Logger
}

// NewLogger returns a JSON logger on stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter returns a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level).slog()})
	return &slogLogger{l: slog.New(h)}
}

// FromSlog adapts an existing slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelInfo, msg, fields)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelWarn, msg, fields)
}

func (s *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelError, msg, fields)
}

func (s *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, slog.LevelDebug, msg, fields)
}

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(attrsOf(fields)...)}
}

func (s *slogLogger) WithProbe(meta ProbeMeta) Logger {
	args := []any{slog.String("probe.strategy", meta.StrategyID)}
	if meta.ConfigurationID != "" {
		args = append(args, slog.String("probe.configuration", meta.ConfigurationID))
	}
	if meta.SystemID != "" {
		args = append(args, slog.String("probe.system", meta.SystemID))
	}
	if meta.RunID != "" {
		args = append(args, slog.String("probe.run_id", meta.RunID))
	}
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, a := range attrsOf(fields) {
		attrs = append(attrs, a.(slog.Attr))
	}
	s.l.LogAttrs(ctx, level, msg, attrs...)
}

func attrsOf(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		if isRedactedField(f.Key) {
			out = append(out, slog.String(f.Key, "[REDACTED]"))
			continue
		}
		if err, ok := f.Value.(error); ok && err != nil {
			out = append(out, slog.String(f.Key, err.Error()))
			continue
		}
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// redactedMarkers are matched case-insensitively anywhere in a field key,
// so "db_password" and "X-Api-Key" are both covered.
var redactedMarkers = []string{
	"password",
	"secret",
	"token",
	"dsn",
	"apikey",
	"api_key",
	"accesskey",
	"credential",
	"authorization",
}

func isRedactedField(key string) bool {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "")
	return slices.ContainsFunc(redactedMarkers, func(m string) bool {
		return strings.Contains(key, m)
	})
}

type nopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Debug(context.Context, string, ...Field) {}
func (n nopLogger) With(...Field) Logger                  { return n }
func (n nopLogger) WithProbe(ProbeMeta) Logger            { return n }

var (
	_ Logger = (*slogLogger)(nil)
	_ Logger = nopLogger{}
)
