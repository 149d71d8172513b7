package analyzer

import (
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger provides verbose output for analysis decisions, plus leveled
// structured logging for the layers around the pipeline.
type Logger struct {
	enabled bool
	charm   *charmlog.Logger
}

// LoggerOptions configures NewLoggerWithOptions.
type LoggerOptions struct {
	Verbose bool
	Output  io.Writer
	Level   string // debug, info, warn or error
	JSON    bool
}

// NewLogger creates a new logger instance writing to stderr.
func NewLogger(enabled bool) *Logger {
	return NewLoggerWithOptions(LoggerOptions{Verbose: enabled, Output: os.Stderr})
}

// NewLoggerWithOptions creates a logger. Verbose output is emitted at debug
// level, so enabling it lowers the level to debug.
func NewLoggerWithOptions(opts LoggerOptions) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	level := parseLevel(opts.Level)
	if opts.Verbose {
		level = charmlog.DebugLevel
	}
	charm := charmlog.NewWithOptions(opts.Output, charmlog.Options{
		Prefix: "redoscan",
		Level:  level,
	})
	if opts.JSON {
		charm.SetFormatter(charmlog.JSONFormatter)
	}
	return &Logger{enabled: opts.Verbose, charm: charm}
}

func parseLevel(s string) charmlog.Level {
	switch s {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	}
	return charmlog.InfoLevel
}

// SetOutput sets the output writer for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.charm.SetOutput(w)
}

// Log prints a formatted message if verbose mode is enabled.
func (l *Logger) Log(format string, args ...any) {
	if l.enabled {
		l.charm.Debug(fmt.Sprintf(format, args...))
	}
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l.enabled {
		l.charm.Debug("=== " + name + " ===")
	}
}

// Enabled returns whether verbose mode is enabled.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// With returns a logger that adds keyvals to every entry.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{enabled: l.enabled, charm: l.charm.With(keyvals...)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.charm.Debug(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.charm.Info(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.charm.Warn(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.charm.Error(msg, keyvals...) }
