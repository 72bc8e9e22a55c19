// Package logging holds the ServiceLogger contract used by the dispatcher, the
// Watermill endpoint and the websocket peer, plus adapters for slog, zap,
// Watermill and entry-style loggers.
package logging

import (
	"log/slog"
	"maps"
	"slices"
)

// LogFields represents structured logging key/value pairs.
type LogFields map[string]any

// ServiceLogger is the logging contract used across relay. Error accepts a nil
// err for diagnostics that have no underlying error value.
type ServiceLogger interface {
	With(fields LogFields) ServiceLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
	Trace(msg string, fields LogFields)
}

// LevelTrace is the slog level used for Trace output.
const LevelTrace = slog.LevelDebug - 4

// NewNopServiceLogger returns a logger that discards everything.
func NewNopServiceLogger() ServiceLogger {
	return nopLogger{}
}

// OrNop returns log, or the discarding logger when log is nil.
func OrNop(log ServiceLogger) ServiceLogger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

type nopLogger struct{}

func (nopLogger) With(LogFields) ServiceLogger { return nopLogger{} }
func (nopLogger) Debug(string, LogFields) {}
func (nopLogger) Info(string, LogFields) {}
func (nopLogger) Error(string, error, LogFields) {}
func (nopLogger) Trace(string, LogFields) {}

func sortedKeys(fields LogFields) []string {
	return slices.Sorted(maps.Keys(fields))
}
