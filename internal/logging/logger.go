// Package logging provides structured logging configuration using log/slog.
//
// Loggers pulled from a request context carry chi's request_id, and the
// merge_id once a merge has been assigned one, so every line written while
// serving a merge can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const ctxKeyMergeID contextKey = "merge_id"

// Setup configures the global slog logger on stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. The CLI uses it to log to stderr so
// reports on stdout stay machine readable.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithMergeID stores a merge id in ctx for FromContext to pick up.
func WithMergeID(ctx context.Context, mergeID string) context.Context {
	return context.WithValue(ctx, ctxKeyMergeID, mergeID)
}

// MergeID returns the merge id stored in ctx, or "".
func MergeID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyMergeID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns the default logger enriched with request_id and
// merge_id when ctx carries them.
//
// Usage:
//
//	func handleMerge(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("merge requested", "join", cfg.Join)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if mergeID := MergeID(ctx); mergeID != "" {
		logger = logger.With("merge_id", mergeID)
	}

	return logger
}

// WithFields returns a context logger with additional structured fields.
//
//	mergeLogger := logging.WithFields(ctx, "key_a", cfg.KeyA, "key_b", cfg.KeyB)
//	mergeLogger.Info("merge completed", "rows_out", summary.RowsOut)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
