package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetOutput(os.Stdout, slog.LevelInfo)
}

// SetOutput replaces the destination of all log lines. Lines are JSON objects with
// time, level and msg followed by the caller's fields.
func SetOutput(w io.Writer, level slog.Level) {
	logger.Store(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	write(slog.LevelDebug, msg, fields)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(slog.LevelInfo, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(slog.LevelWarn, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(slog.LevelError, msg, fields)
}

func write(level slog.Level, msg string, fields map[string]any) {
	l := logger.Load()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	l.LogAttrs(ctx, level, msg, attrs...)
}
