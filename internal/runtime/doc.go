/*
Package runtime implements relay's message dispatch core and the Watermill
endpoint built on it.

# Architecture Overview

A Dispatcher owns two tables: the handler registry, keyed by method name, and
the pending table, keyed by correlation id. Inbound envelopes are either
requests, notifications or responses. Requests and notifications run their
handler on a Scheduler; requests are answered exactly once through the
SendResponse callback given to Dispatch. Responses settle the Future handed
out by WaitForResponse, or are logged as stray when nothing waits for them.

The dispatcher never touches the network. Endpoint adapts it to a Watermill
transport, and the socket package adapts it to websockets.

# Package Structure

## Dispatch core (dispatcher.go, registry.go, pending.go, future.go)

  - Registry swaps are atomic; a dispatch sees the old or the new map, never
    a mix.
  - The pending table is guarded by a mutex and shared futures are settled
    once.
  - truthy.go defines when a response's error field counts as a failure.

## Scheduling and hooks (scheduler.go, hooks.go, metrics.go)

GoroutineScheduler runs each handler on its own goroutine. SerialScheduler
runs them one at a time in arrival order. HandlerHooks observe handler
execution and DispatcherMetrics exports Prometheus collectors.

## Codecs (codec*.go)

JSONCodec encodes envelopes with sonic; ProtoCodec maps them onto
google.protobuf.Struct.

## Endpoint (endpoint.go, call.go, publisher.go, middleware.go, admin.go)

The endpoint consumes TopicPrefix+Identity, publishes to TopicPrefix+To and
wraps inbound handling in the middleware chain:
  - CorrelationID: Ensures every message carries a correlation id
  - LogMessages: Debug logging of message payloads
  - Tracer: OpenTelemetry consumer spans with W3C trace context propagation
  - Metrics: Prometheus router and publisher metrics
  - Recoverer: Panic recovery

Request correlates an outbound call with its response and drops the pending
entry when the send fails or the context ends. The admin API reports the
registered handlers and the pending count.

# Sub-packages

  - config/: Endpoint configuration with validation and viper loading
  - errors/: Sentinel errors and error types
  - ids/: ULID generation for message and correlation ids
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
  - metadata/: Message metadata utilities and envelope keys

# Usage Example

	cfg := &relay.Config{
		Identity:     "calculator",
		TopicPrefix:  "relay.",
		PubSubSystem: "kafka",
		KafkaBrokers: []string{"localhost:9092"},
	}

	ep, err := relay.NewEndpoint(cfg, logger, ctx, relay.EndpointDependencies{
		Handlers: relay.EndpointHandlers{"add": add},
	})
	if err != nil {
		return err
	}
	go ep.Start(ctx)

	sum, err := ep.Call(ctx, "calculator", "add", relay.Args{"a": 2, "b": 3})
*/
package runtime
