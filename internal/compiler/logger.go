package compiler

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger provides verbose output for analysis decisions during compilation.
// Records are emitted at debug level so they stay silent unless the caller's
// handler is configured for it.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a new logger instance. A nil slog.Logger disables output.
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		return &Logger{}
	}
	return &Logger{log: l.With("component", "regscan")}
}

// Log emits a formatted message if debug logging is enabled.
func (l *Logger) Log(format string, args ...interface{}) {
	if l.Enabled() {
		l.log.Debug(fmt.Sprintf(format, args...))
	}
}

// Section emits a section header if debug logging is enabled.
func (l *Logger) Section(name string) {
	if l.Enabled() {
		l.log.Debug("=== " + name + " ===")
	}
}

// Enabled returns whether the logger is enabled.
func (l *Logger) Enabled() bool {
	return l != nil && l.log != nil && l.log.Enabled(context.Background(), slog.LevelDebug)
}
