// Package logging builds the structured loggers used by both binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stderr as Options.File logs to standard error instead of a file.
const Stderr = "-"

// Options selects level and destination.
type Options struct {
	Level string
	// File is the log path. Empty uses DefaultPath(Name); Stderr logs to stderr.
	File string
	// Name is the binary name used for the default file.
	Name string
}

// MakeRunID returns a random identifier for one process run.
func MakeRunID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("run-%d", time.Now().UTC().UnixNano())
	}
	return "run-" + id.String()
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// DefaultPath returns ~/.local/state/hllstatus/<name>.log.
func DefaultPath(name string) (string, error) {
	if name == "" {
		name = "hllstatus"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("logging: home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "hllstatus", name+".log"), nil
}

// Setup builds a text logger tagged with a fresh run_id and installs it as
// the slog default. When the log file cannot be opened it falls back to
// stderr. The returned func closes the file.
func Setup(opts Options) (*slog.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, func() {}, err
	}

	var out io.Writer = os.Stderr
	cleanup := func() {}
	if opts.File != Stderr {
		if f, ferr := openLogFile(opts); ferr == nil {
			out = f
			cleanup = func() { _ = f.Close() }
		}
	}

	logger := New(out, level).With("run_id", MakeRunID())
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// New builds an untagged text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openLogFile(opts Options) (*os.File, error) {
	path := opts.File
	if path == "" {
		p, err := DefaultPath(opts.Name)
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("logging: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	return f, nil
}
