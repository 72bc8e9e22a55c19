package logging

import (
	"context"
	"log/slog"
)

// NewSlogServiceLogger adapts a slog.Logger. Fields are emitted in key order,
// errors under the "error" key and Trace at LevelTrace.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	if log == nil {
		panic("logging: nil *slog.Logger")
	}
	return slogLogger{log: log}
}

type slogLogger struct {
	log *slog.Logger
}

func (s slogLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return s
	}
	args := make([]any, 0, len(fields))
	for _, attr := range slogAttrs(fields) {
		args = append(args, attr)
	}
	return slogLogger{log: s.log.With(args...)}
}

func (s slogLogger) Debug(msg string, fields LogFields) {
	s.emit(slog.LevelDebug, msg, fields, nil)
}

func (s slogLogger) Info(msg string, fields LogFields) {
	s.emit(slog.LevelInfo, msg, fields, nil)
}

func (s slogLogger) Error(msg string, err error, fields LogFields) {
	s.emit(slog.LevelError, msg, fields, err)
}

func (s slogLogger) Trace(msg string, fields LogFields) {
	s.emit(LevelTrace, msg, fields, nil)
}

func (s slogLogger) emit(level slog.Level, msg string, fields LogFields, err error) {
	ctx := context.Background()
	if !s.log.Enabled(ctx, level) {
		return
	}
	attrs := slogAttrs(fields)
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	s.log.LogAttrs(ctx, level, msg, attrs...)
}

func slogAttrs(fields LogFields) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	for _, k := range sortedKeys(fields) {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}
