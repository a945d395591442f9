// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger used across h2sr's
// collaborators (CLI, proxy front-end, policy build). Query-time matcher
// code never logs; only the surrounding build/connection-handling code does.
package logging

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Level mirrors charmbracelet/log's severity levels without leaking that
// dependency into every caller.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) toCharm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Config controls how a Logger renders records.
type Config struct {
	Output io.Writer
	Level  Level
	// JSON switches the formatter from the default human-readable form to
	// newline-delimited JSON, for log shipping.
	JSON bool
}

// DefaultConfig returns the logger configuration used when a caller hasn't
// set one up explicitly: human-readable, info level, stderr.
func DefaultConfig() Config {
	return Config{
		Output: os.Stderr,
		Level:  LevelInfo,
	}
}

// Logger wraps a configured charmbracelet/log logger with the key-value
// call signature used throughout h2sr.
type Logger struct {
	inner *log.Logger
}

// New builds a Logger from cfg. A nil cfg.Output defaults to os.Stderr.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := log.Options{
		Level:           cfg.Level.toCharm(),
		ReportTimestamp: true,
	}
	if cfg.JSON {
		opts.Formatter = log.JSONFormatter
	}
	return &Logger{inner: log.NewWithOptions(out, opts)}
}

// WithComponent returns a child logger that tags every record with
// component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{inner: l.inner.With("component", name)}
}

// With returns a child logger tagged with the given key-value pairs.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{inner: l.inner.With(keyvals...)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.inner.Debug(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.inner.Info(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.inner.Warn(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.inner.Error(msg, keyvals...) }

var defaultLogger atomic.Pointer[Logger]
var defaultOnce sync.Once

// Default returns the process-wide logger, initializing it with
// DefaultConfig on first use.
func Default() *Logger {
	defaultOnce.Do(func() {
		if defaultLogger.Load() == nil {
			defaultLogger.Store(New(DefaultConfig()))
		}
	})
	return defaultLogger.Load()
}

// SetDefault installs l as the process-wide logger.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// WithComponent tags the default logger with a component and returns the
// resulting child logger.
func WithComponent(name string) *Logger { return Default().WithComponent(name) }

func Debug(msg string, keyvals ...any) { Default().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { Default().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Default().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Default().Error(msg, keyvals...) }
