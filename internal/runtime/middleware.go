package runtime

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	idspkg "github.com/drblury/relay/internal/runtime/ids"
	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
	metadatapkg "github.com/drblury/relay/internal/runtime/metadata"
)

// MiddlewareBuilder constructs a router middleware using the endpoint it is
// registered on. Returning a nil middleware skips registration.
type MiddlewareBuilder func(*Endpoint) (message.HandlerMiddleware, error)

// MiddlewareRegistration captures how a middleware should be registered on an
// Endpoint router.
type MiddlewareRegistration struct {
	Name       string
	Middleware message.HandlerMiddleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the chain NewEndpoint installs in front of the
// inbox handler. None of them retries: a redelivered request would run its
// handler twice.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		CorrelationIDMiddleware(),
		LogMessagesMiddleware(nil),
		TracerMiddleware(),
		MetricsMiddleware(),
		RecovererMiddleware(),
	}
}

// MetricsMiddleware adds Watermill's Prometheus router metrics and exposes
// them on the configured metrics port.
func MetricsMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "metrics",
		Builder: func(e *Endpoint) (message.HandlerMiddleware, error) {
			if !e.Conf.MetricsEnabled {
				return nil, nil
			}

			metricsBuilder := metrics.NewPrometheusMetricsBuilder(
				e.registerer,
				"relay",
				e.transportName(),
			)
			metricsBuilder.AddPrometheusRouterMetrics(e.router)

			publisher, err := metricsBuilder.DecoratePublisher(e.publisher)
			if err != nil {
				return nil, err
			}
			e.publisher = publisher

			if e.Conf.MetricsPort > 0 {
				e.RegisterHTTPHandler(e.Conf.MetricsPort, "/metrics", promhttp.Handler())
			}
			return nil, nil
		},
	}
}

// CorrelationIDMiddleware makes sure each inbound message carries a
// correlation id. Notifications have none of their own, so one is generated
// for log correlation only.
func CorrelationIDMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "correlation_id",
		Builder: func(e *Endpoint) (message.HandlerMiddleware, error) {
			return e.correlationIDMiddleware(), nil
		},
	}
}

// LogMessagesMiddleware logs the payload and metadata of inbound messages at
// debug level.
func LogMessagesMiddleware(logger loggingpkg.ServiceLogger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_messages",
		Builder: func(e *Endpoint) (message.HandlerMiddleware, error) {
			l := logger
			if l == nil {
				l = e.Logger
			}
			if l == nil {
				return nil, errors.New("log messages middleware requires a logger")
			}
			return e.logMessagesMiddleware(l), nil
		},
	}
}

// TracerMiddleware continues the publisher's trace, when one was propagated,
// in a consumer span around inbound handling.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tracer",
		Builder: func(e *Endpoint) (message.HandlerMiddleware, error) {
			return e.tracerMiddleware(), nil
		},
	}
}

// RecovererMiddleware converts panics in the inbound path into handler errors.
// Panics inside relay handlers never reach it; the dispatcher answers those
// with an error response.
func RecovererMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name:       "recoverer",
		Middleware: middleware.Recoverer,
	}
}

// RegisterMiddleware attaches the supplied middleware to the router. It must
// be called before Start.
func (e *Endpoint) RegisterMiddleware(cfg MiddlewareRegistration) error {
	if e.router == nil {
		return errors.New("router is not initialised")
	}

	var mw message.HandlerMiddleware
	switch {
	case cfg.Middleware != nil:
		mw = cfg.Middleware
	case cfg.Builder != nil:
		var err error
		mw, err = cfg.Builder(e)
		if err != nil {
			return err
		}
	default:
		return errors.New("middleware registration requires Middleware or Builder")
	}

	if mw == nil {
		return nil
	}

	e.router.AddMiddleware(mw)
	return nil
}

func (e *Endpoint) correlationIDMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			if msg.Metadata.Get(metadatapkg.KeyCorrelationID) == "" {
				msg.Metadata.Set(metadatapkg.KeyCorrelationID, idspkg.CreateULID())
			}
			return h(msg)
		}
	}
}

func (e *Endpoint) logMessagesMiddleware(logger loggingpkg.ServiceLogger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			logger.Debug("Processing message", loggingpkg.LogFields{
				"message_uuid": msg.UUID,
				"payload":      string(msg.Payload),
				"metadata":     metadatapkg.FromWatermill(msg.Metadata),
			})
			return h(msg)
		}
	}
}

func (e *Endpoint) tracerMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx := msg.Context()
			if e.propagator != nil {
				ctx = e.propagator.Extract(ctx, propagation.MapCarrier(msg.Metadata))
			}

			routing := metadatapkg.Metadata(msg.Metadata).Routing()
			ctx, span := e.tracer.Start(ctx, "relay.receive",
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("message.uuid", msg.UUID),
					attribute.String("relay.type", routing.Type),
					attribute.String("relay.from", routing.From),
					attribute.String("relay.method", routing.Method),
					attribute.String("relay.correlation_id", routing.CorrelationID),
				),
			)
			defer span.End()
			msg.SetContext(ctx)

			return h(msg)
		}
	}
}
