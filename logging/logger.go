// Package logging builds the zerolog logger each process writes through.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with component. In dev mode it writes
// human-readable console output; otherwise JSON lines to stdout.
func New(component, level string, dev bool) zerolog.Logger {
	var out io.Writer = os.Stdout
	if dev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return NewWithWriter(out, component, level)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(out io.Writer, component, level string) zerolog.Logger {
	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// ParseLevel falls back to info for empty or unknown levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
