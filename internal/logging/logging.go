// Package logging sets up the process-wide slog logger for fermi. Every
// package logs through New so records carry the component that emitted
// them (download, generate, export, mcp).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"":        slog.LevelInfo,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Init installs the default logger. format "json" selects the JSON
// handler, anything else text. Output goes to w, or stderr when w is
// omitted or nil, keeping stdout free for JSONL and MCP traffic.
func Init(level slog.Level, format string, w ...io.Writer) {
	var out io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		out = w[0]
	}
	slog.SetDefault(slog.New(newHandler(out, level, format)))
}

func newHandler(out io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// New returns the default logger tagged with component.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ParseLevel maps the settings-file level name to a slog.Level. Empty
// means info.
func ParseLevel(s string) (slog.Level, error) {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// ValidFormat reports whether format is "text" or "json".
func ValidFormat(format string) bool {
	return format == "text" || format == "json"
}
