package logging

import "github.com/ThreeDotsLabs/watermill"

// NewWatermillServiceLogger wraps a Watermill LoggerAdapter. An adapter built
// by NewWatermillAdapter is unwrapped back to its ServiceLogger.
func NewWatermillServiceLogger(logger watermill.LoggerAdapter) ServiceLogger {
	switch l := logger.(type) {
	case nil:
		panic("logging: nil watermill.LoggerAdapter")
	case routerAdapter:
		return l.log
	}
	return watermillLogger{inner: logger}
}

// NewWatermillAdapter exposes log to the Watermill router and pub/sub so they
// write through the endpoint's sink. A logger built by
// NewWatermillServiceLogger is unwrapped back to its adapter.
func NewWatermillAdapter(log ServiceLogger) watermill.LoggerAdapter {
	switch l := log.(type) {
	case nil:
		panic("logging: nil ServiceLogger")
	case watermillLogger:
		return l.inner
	}
	return routerAdapter{log: log}
}

type watermillLogger struct {
	inner watermill.LoggerAdapter
}

func (w watermillLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return w
	}
	return watermillLogger{inner: w.inner.With(watermill.LogFields(fields))}
}

func (w watermillLogger) Debug(msg string, fields LogFields) {
	w.inner.Debug(msg, watermill.LogFields(fields))
}

func (w watermillLogger) Info(msg string, fields LogFields) {
	w.inner.Info(msg, watermill.LogFields(fields))
}

func (w watermillLogger) Error(msg string, err error, fields LogFields) {
	w.inner.Error(msg, err, watermill.LogFields(fields))
}

func (w watermillLogger) Trace(msg string, fields LogFields) {
	w.inner.Trace(msg, watermill.LogFields(fields))
}

type routerAdapter struct {
	log ServiceLogger
}

func (r routerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	if len(fields) == 0 {
		return r
	}
	return routerAdapter{log: r.log.With(LogFields(fields))}
}

func (r routerAdapter) Debug(msg string, fields watermill.LogFields) {
	r.log.Debug(msg, LogFields(fields))
}

func (r routerAdapter) Info(msg string, fields watermill.LogFields) {
	r.log.Info(msg, LogFields(fields))
}

func (r routerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	r.log.Error(msg, err, LogFields(fields))
}

func (r routerAdapter) Trace(msg string, fields watermill.LogFields) {
	r.log.Trace(msg, LogFields(fields))
}
