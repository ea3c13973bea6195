package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// setupLogger builds the diagnostic logger. Logs go to stderr so they never
// mix with command output; --verbose forces debug.
func setupLogger(level, format string, verbose bool) *slog.Logger {
	return newLogger(os.Stderr, level, format, verbose)
}

func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
