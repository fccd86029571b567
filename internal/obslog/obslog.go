// Package obslog is the ambient logging wrapper for this module: a thin
// layer over log/slog that lets a *slog.Logger ride along in a
// context.Context, the same way a request-scoped logger or tracer commonly
// rides through a context chain. It carries only logging — no spans, no
// metrics.
package obslog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

// WithLogger returns a child context carrying logger, retrievable later via
// FromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or slog.Default() if none
// was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// LevelFromEnv reads IKIGAI_LOG_LEVEL (falling back to LOG_LEVEL) and
// returns the corresponding slog.Level, defaulting to Info for an unset or
// unrecognized value.
func LevelFromEnv() slog.Level {
	level := os.Getenv("IKIGAI_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	case "", "INFO":
		return slog.LevelInfo
	default:
		fmt.Fprintf(os.Stderr, "obslog: unknown log level %q, using INFO\n", level)
		return slog.LevelInfo
	}
}

// New builds a text-handler *slog.Logger at the level reported by
// LevelFromEnv, writing to stderr — the REPL's default logger.
func New() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelFromEnv()})
	return slog.New(handler)
}
