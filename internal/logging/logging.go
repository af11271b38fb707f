// Package logging builds the slog loggers used by the CLI and server.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joshharrison/ganttcpm/internal/graph"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ParseLevel converts a level name to a slog.Level, defaulting to info.
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

// New returns a logger writing to w. format "json" selects slog's JSON
// handler; anything else uses tint, colored only when w is a terminal.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		NoColor:    !isTerminal(w),
		TimeFormat: time.Kitchen,
		Level:      lvl,
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Warnings logs scheduling diagnostics at WARN level, one record each.
func Warnings(logger *slog.Logger, warnings []graph.Warning) {
	for _, w := range warnings {
		attrs := []any{"kind", string(w.Kind)}
		if w.TaskID != "" {
			attrs = append(attrs, "task", w.TaskID)
		}
		if w.DependencyID != "" {
			attrs = append(attrs, "dependency", w.DependencyID)
		}
		logger.Warn(w.Message, attrs...)
	}
}
