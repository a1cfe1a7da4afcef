// Package log configures slog for the pesalens binaries. Every record a
// Logger emits carries a component attribute naming the subsystem.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a component-scoped slog.Logger.
type Logger struct {
	*slog.Logger
	component string
}

// Options tunes handler construction. The zero value means text records at
// info level on stdout.
type Options struct {
	Level  slog.Level
	Output io.Writer
}

// New builds a logger whose records all carry component=<name>.
func New(component string, opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level})
	return &Logger{
		Logger:    slog.New(handler).With("component", component),
		component: component,
	}
}

// Component reports the scope this logger writes under.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault routes package-level slog calls through this logger.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
