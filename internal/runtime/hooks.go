package runtime

import (
	"context"
	"time"

	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
)

// HandlerContext describes one handler invocation to hooks.
type HandlerContext struct {
	// Type is request or notification.
	Type MessageType
	// Method is the invoked method name.
	Method string
	// ID is the correlation id; empty for notifications.
	ID string
	// From and To are the addresses of the inbound envelope.
	From string
	To   string
	// Context is the context the handler runs with.
	Context context.Context
	// StartedAt is when the handler body started.
	StartedAt time.Time
	// Duration is only set in OnHandlerDone and OnHandlerError.
	Duration time.Duration
}

// HandlerHooks defines callbacks around handler execution. All hooks are
// optional. Hooks run on the scheduler goroutine, before the response is sent.
type HandlerHooks struct {
	OnHandlerStart func(ctx HandlerContext)
	OnHandlerDone  func(ctx HandlerContext)
	OnHandlerError func(ctx HandlerContext, err error)
}

// Merge returns hooks that call h first and then other.
func (h HandlerHooks) Merge(other HandlerHooks) HandlerHooks {
	return HandlerHooks{
		OnHandlerStart: chainHooks(h.OnHandlerStart, other.OnHandlerStart),
		OnHandlerDone:  chainHooks(h.OnHandlerDone, other.OnHandlerDone),
		OnHandlerError: chainErrorHooks(h.OnHandlerError, other.OnHandlerError),
	}
}

func chainHooks(a, b func(HandlerContext)) func(HandlerContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx HandlerContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(HandlerContext, error)) func(HandlerContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx HandlerContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// LoggingHooks logs handler lifecycle events at debug level, and failures at
// error level.
func LoggingHooks(logger loggingpkg.ServiceLogger) HandlerHooks {
	fields := func(ctx HandlerContext) loggingpkg.LogFields {
		return loggingpkg.LogFields{
			"type":   string(ctx.Type),
			"method": ctx.Method,
			"id":     ctx.ID,
			"from":   ctx.From,
		}
	}
	return HandlerHooks{
		OnHandlerStart: func(ctx HandlerContext) {
			logger.Debug("Handler started", fields(ctx))
		},
		OnHandlerDone: func(ctx HandlerContext) {
			f := fields(ctx)
			f["duration_ms"] = ctx.Duration.Milliseconds()
			logger.Debug("Handler completed", f)
		},
		OnHandlerError: func(ctx HandlerContext, err error) {
			f := fields(ctx)
			f["duration_ms"] = ctx.Duration.Milliseconds()
			logger.Error("Handler failed", err, f)
		},
	}
}

// MetricsHooks records handler durations on m.
func MetricsHooks(m *DispatcherMetrics) HandlerHooks {
	if m == nil {
		return HandlerHooks{}
	}
	return HandlerHooks{
		OnHandlerDone: func(ctx HandlerContext) {
			m.ObserveHandler(ctx.Method, ctx.Type, ctx.Duration, nil)
		},
		OnHandlerError: func(ctx HandlerContext, err error) {
			m.ObserveHandler(ctx.Method, ctx.Type, ctx.Duration, err)
		},
	}
}

// AlertingHooks calls alertFunc for every handler failure.
func AlertingHooks(alertFunc func(ctx HandlerContext, err error)) HandlerHooks {
	return HandlerHooks{OnHandlerError: alertFunc}
}
