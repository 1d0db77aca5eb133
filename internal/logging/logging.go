// Package logging builds the structured logger used across SensorBoard.
//
// Components log through *slog.Logger; the handler behind it is a
// charmbracelet/log logger so output stays readable in a terminal and
// machine-parseable (logfmt) in files.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// Format selects the line format.
type Format int

const (
	// FormatText is human-oriented, colored when the writer is a terminal.
	FormatText Format = iota

	// FormatLogfmt writes key=value lines, suited for files.
	FormatLogfmt
)

// New returns a logger writing to w at the given level
// ("debug", "info", "warn" or "error").
func New(w io.Writer, level string, format Format) (*slog.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "sensorboard",
		Formatter:       formatter(format),
	})
	return slog.New(handler), nil
}

// OpenFile opens (or creates) path for appending log lines, creating parent
// directories as needed. The caller closes the returned file.
func OpenFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ValidLevel reports whether level is accepted by [New].
func ValidLevel(level string) bool {
	if level == "" {
		return true
	}
	_, err := log.ParseLevel(level)
	return err == nil
}

func formatter(f Format) log.Formatter {
	if f == FormatLogfmt {
		return log.LogfmtFormatter
	}
	return log.TextFormatter
}
