// Package logging configures structured logging for go-passkey
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Options controls handler construction.
type Options struct {
	// Level is the minimum level to emit: "debug", "info", "warn", "error".
	Level string

	// Format selects the handler: "text" (default) or "json".
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// NewLogger creates a slog logger from the given options.
func NewLogger(opts Options) *slog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	}

	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(output, handlerOpts)
	}
	return slog.New(handler)
}

// DefaultLogger returns a text logger at info level writing to stderr.
func DefaultLogger() *slog.Logger {
	return NewLogger(Options{})
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
