// Package logging builds the leveled console logger shared by the CLI, the editor
// and the note stores.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	Prefix          string
}

func DefaultOptions() Options {
	return Options{
		Level:     log.WarnLevel,
		Formatter: log.TextFormatter,
		Prefix:    "checklist",
	}
}

func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// FromConfig builds a logger from the string values kept in the config file.
func FromConfig(w io.Writer, level, format string) *log.Logger {
	opts := DefaultOptions()
	opts.Level = ParseLevel(level)
	opts.Formatter = ParseFormatter(format)
	opts.ReportTimestamp = opts.Formatter != log.TextFormatter
	return New(w, opts)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return New(io.Discard, Options{Level: log.FatalLevel + 1, Formatter: log.TextFormatter})
}

// ParseLevel maps a config value to a level. Unknown values mean warn.
func ParseLevel(level string) log.Level {
	l, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return log.WarnLevel
	}
	return l
}

func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
