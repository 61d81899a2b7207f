// Package logging builds the file logger shared by every bookr command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FileName is the log file created inside the data directory.
const FileName = "bookr.log"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger that appends JSON lines to file. An empty file
// discards all output. Every line carries the same "run" id so the lines of
// one invocation can be grouped.
//
// The level parameter can be one of: debug, info, warn, error.
func New(level, file string) (zerolog.Logger, io.Closer, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if file == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}

	return newLogger(f, lvl), f, nil
}

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Str("run", uuid.NewString()).
		Logger().
		Level(lvl)
}

// Component returns a child logger tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("cmp", name).Logger()
}
