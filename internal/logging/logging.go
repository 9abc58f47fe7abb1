// Package logging configures slog output for the CLI: structured JSON
// to a size-rotated file under the data dir, with optional mirroring
// to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls where and how much the process logs.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string

	// FilePath of the log file.
	FilePath string

	// MaxSizeMB before the file rotates.
	MaxSizeMB int

	// MaxFiles of rotated history to keep.
	MaxFiles int

	// WriteToStderr mirrors log output to stderr. Commands that print
	// results to stdout turn this off so output stays parseable.
	WriteToStderr bool
}

// DefaultConfig logs at info level to the default log file.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig is DefaultConfig at debug level.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup opens the rotating log file and builds a JSON slog logger on
// it. The returned cleanup flushes and closes the file; callers run it
// when the command finishes.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = writer
	if cfg.WriteToStderr {
		out = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return slog.New(handler), cleanup, nil
}

// parseLevel maps a level name to slog.Level, defaulting to info for
// anything unrecognized.
func parseLevel(level string) slog.Level {
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
