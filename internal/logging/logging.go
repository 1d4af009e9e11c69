// Package logging builds the slog loggers used by the CLI and by recorded
// scripts. Libraries log through the slog package functions; the entry point
// installs the handler once with slog.SetDefault.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a text logger writing records at or above level to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger returns a logger that drops everything. Tests use it to
// keep output quiet.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LevelFromString parses debug, info, warn (or warning) and error.
// The empty string means warn.
func LevelFromString(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
}

// LevelFromVerbosity maps the CLI's --verbose flag over a configured level.
func LevelFromVerbosity(verbose bool, configured slog.Level) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return configured
}
