// Package relay routes request, response and notification envelopes between
// addressed peers. A Dispatcher holds a handler registry keyed by method name
// and a table of pending requests keyed by correlation id: Dispatch hands
// requests and notifications to their handler on a Scheduler, answers each
// request exactly once, and resolves the Future returned by WaitForResponse
// when the matching response arrives. A response whose error field is truthy
// rejects the future; false, 0, "" and nil count as success.
//
// Dispatchers are transport agnostic and generic over the sender type passed
// to handlers. Two transports ship with the module:
//
//   - Endpoint serves a dispatcher over Watermill. It consumes the topic
//     TopicPrefix+Identity and publishes envelopes to the topic of their To
//     address, on any registered transport (channel, kafka, rabbitmq, nats,
//     http). Call and Notify originate envelopes.
//   - The socket package serves a dispatcher over gorilla websockets, with
//     JSON text frames and proto binary frames.
//
// # Transports
//
// The in-memory channel transport is registered by this package. Import
// github.com/drblury/relay/transport/transports, or an individual transport
// package, to register the brokers.
//
// # Middleware
//
// The Endpoint's default middleware chain includes correlation ID injection,
// message logging, OpenTelemetry tracing with context propagation, Prometheus
// metrics and panic recovery. Nothing retries: a redelivered request would
// run its handler twice. Custom middleware can be added via
// EndpointDependencies.Middlewares.
//
// # Hooks
//
// HandlerHooks provide OnHandlerStart, OnHandlerDone and OnHandlerError
// callbacks around handler execution. LoggingHooks, MetricsHooks and
// AlertingHooks cover the common cases and compose with Merge.
package relay
