package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/relay/internal/runtime/config"
	errspkg "github.com/drblury/relay/internal/runtime/errors"
	idspkg "github.com/drblury/relay/internal/runtime/ids"
	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
	transportpkg "github.com/drblury/relay/transport"
)

const inboxHandlerName = "relay_inbox"

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// EndpointHandlers are handlers served by an Endpoint. The sender passed to
// them is the inbound Watermill message, which exposes its metadata.
type EndpointHandlers = Handlers[*message.Message]

// EndpointDependencies holds the optional collaborators of an Endpoint. Leave
// fields zero to get the defaults derived from the config.
type EndpointDependencies struct {
	// Handlers is the initial handler registry.
	Handlers EndpointHandlers
	// Transport skips the transport registry when set.
	Transport *transportpkg.Transport
	// Registry resolves the configured pubsub system. Defaults to
	// transport.DefaultRegistry.
	Registry *transportpkg.Registry

	Scheduler    Scheduler
	ErrorEncoder ErrorEncoder
	// Hooks run after the built-in logging and metrics hooks.
	Hooks HandlerHooks

	// MetricsRegisterer defaults to prometheus.DefaultRegisterer.
	MetricsRegisterer prometheus.Registerer
	// TracerProvider defaults to the global otel provider.
	TracerProvider trace.TracerProvider
	// Propagator defaults to the global otel propagator.
	Propagator propagation.TextMapPropagator

	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
}

// Endpoint serves a Dispatcher over a Watermill transport. It consumes its
// inbox topic, derived from Conf.Identity, and publishes envelopes to the
// topic of their To address.
type Endpoint struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	transport    transportpkg.Transport
	capabilities transportpkg.Capabilities
	publisher    message.Publisher
	router       *message.Router

	dispatcher *Dispatcher[*message.Message]
	codec      Codec
	serial     *SerialScheduler

	registerer     prometheus.Registerer
	metrics        *DispatcherMetrics
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator

	httpServers   map[int]*http.ServeMux
	running       []*http.Server
	httpServersMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewEndpoint validates conf, builds the transport and wires the router.
// Register extra middleware on the returned Endpoint before calling Start.
func NewEndpoint(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps EndpointDependencies) (*Endpoint, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}

	codec, err := CodecByName(conf.Codec)
	if err != nil {
		return nil, err
	}

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating relay endpoint", loggingpkg.LogFields{
		"identity":      conf.Identity,
		"pubsub_system": conf.PubSubSystem,
		"codec":         codec.Name(),
		"config":        conf,
	})

	registry := deps.Registry
	if registry == nil {
		registry = transportpkg.DefaultRegistry
	}

	e := &Endpoint{
		Conf:         conf,
		Logger:       log,
		codec:        codec,
		capabilities: registry.GetCapabilities(conf.PubSubSystem),
		registerer:   deps.MetricsRegisterer,
		propagator:   deps.Propagator,
	}
	if e.registerer == nil {
		e.registerer = prometheus.DefaultRegisterer
	}
	if e.propagator == nil {
		e.propagator = otel.GetTextMapPropagator()
	}
	e.tracerProvider = deps.TracerProvider
	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	e.tracer = e.tracerProvider.Tracer(tracerName)

	if deps.Transport != nil {
		e.transport = *deps.Transport
	} else {
		e.transport, err = registry.Build(ctx, conf, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s transport: %w", conf.PubSubSystem, err)
		}
	}
	if e.transport.Publisher == nil || e.transport.Subscriber == nil {
		return nil, errspkg.ErrTransportRequired
	}
	e.publisher = e.transport.Publisher

	if err := e.initDispatcher(deps); err != nil {
		_ = e.transport.Close()
		return nil, err
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		e.closeSchedulerAndTransport()
		return nil, err
	}
	e.router = router
	e.router.AddPlugin(plugin.SignalsHandler)

	if err := e.registerConfiguredMiddlewares(deps); err != nil {
		e.closeSchedulerAndTransport()
		return nil, err
	}

	e.registerAdminServer()

	e.router.AddNoPublisherHandler(
		inboxHandlerName,
		conf.Topic(conf.Identity),
		e.transport.Subscriber,
		e.handleInbound,
	)

	return e, nil
}

func (e *Endpoint) initDispatcher(deps EndpointDependencies) error {
	hooks := LoggingHooks(e.Logger)
	if e.Conf.MetricsEnabled {
		e.metrics = NewDispatcherMetrics(e.registerer)
		if err := e.metrics.Register(); err != nil {
			return fmt.Errorf("failed to register dispatcher metrics: %w", err)
		}
		hooks = hooks.Merge(MetricsHooks(e.metrics))
	}
	hooks = hooks.Merge(deps.Hooks)

	scheduler := deps.Scheduler
	if scheduler == nil && e.Conf.SerialHandlers {
		if !e.capabilities.SupportsOrdering {
			e.Logger.Info("Serial handlers requested but transport does not guarantee ordering", loggingpkg.LogFields{
				"pubsub_system": e.Conf.PubSubSystem,
			})
		}
		e.serial = NewSerialScheduler(e.Logger)
		scheduler = e.serial
	}

	encode := deps.ErrorEncoder
	if encode == nil {
		encode = EncodeErrorMessage
	}

	e.dispatcher = NewDispatcher(Options[*message.Message]{
		Identity:       e.Conf.Identity,
		PeerIdentity:   e.Conf.PeerIdentity,
		Handlers:       deps.Handlers,
		Logger:         e.Logger,
		Scheduler:      scheduler,
		ErrorEncoder:   encode,
		Hooks:          hooks,
		Metrics:        e.metrics,
		TracerProvider: e.tracerProvider,
	})
	return nil
}

func (e *Endpoint) registerConfiguredMiddlewares(deps EndpointDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := e.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("failed to register middleware %s: %w", name, err)
		}
	}
	return nil
}

// handleInbound decodes one inbox message and hands it to the dispatcher. It
// always acks: a redelivered request would run its handler again.
func (e *Endpoint) handleInbound(msg *message.Message) error {
	env, err := e.codec.Unmarshal(msg.Payload)
	if err != nil {
		e.Logger.Error("Invalid message", err, loggingpkg.LogFields{
			"message_uuid": msg.UUID,
			"codec":        e.codec.Name(),
		})
		return nil
	}

	ctx := detach(msg.Context())
	e.dispatcher.Dispatch(ctx, env, msg, func(res Message) {
		if err := e.publish(ctx, res); err != nil {
			e.Logger.Error("Failed to publish response", err, res.logFields())
		}
	})
	return nil
}

func (e *Endpoint) publish(ctx context.Context, env Message) error {
	return PublishEnvelope(ctx, e.publisher, e.Conf.Topic(env.To), e.codec, env, e.propagator)
}

// Start runs the router until ctx is cancelled or Close is called.
func (e *Endpoint) Start(ctx context.Context) error {
	e.startHTTPServers()
	return routerRun(e.router, ctx)
}

// Running is closed once the router has subscribed to the inbox.
func (e *Endpoint) Running() <-chan struct{} {
	return e.router.Running()
}

// Call sends a request to the endpoint at address to and waits for its
// response. A rejected request returns the remote error; see Future.Wait.
func (e *Endpoint) Call(ctx context.Context, to, method string, args Args) (any, error) {
	req := NewRequest(e.Conf.Identity, to, idspkg.NewCorrelationID(), method, args)
	return Request(ctx, e.dispatcher, req, e.publish)
}

// Notify sends a notification to the endpoint at address to.
func (e *Endpoint) Notify(ctx context.Context, to, method string, args Args) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return e.publish(ctx, NewNotification(e.Conf.Identity, to, method, args))
}

// UpdateHandlers replaces the handler registry; see Dispatcher.UpdateHandlers.
func (e *Endpoint) UpdateHandlers(handlers EndpointHandlers) {
	e.dispatcher.UpdateHandlers(handlers)
}

// Dispatcher exposes the underlying dispatcher.
func (e *Endpoint) Dispatcher() *Dispatcher[*message.Message] {
	return e.dispatcher
}

// Codec returns the wire codec in use.
func (e *Endpoint) Codec() Codec {
	return e.codec
}

// Capabilities reports what the configured transport guarantees.
func (e *Endpoint) Capabilities() transportpkg.Capabilities {
	return e.capabilities
}

// Close stops the router, the HTTP servers and the transport. Pending Call
// invocations end when their context does.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		if e.router != nil {
			errs = append(errs, e.router.Close())
		}
		errs = append(errs, e.stopHTTPServers())
		if e.serial != nil {
			e.serial.Close()
		}
		errs = append(errs, e.transport.Close())
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

func (e *Endpoint) closeSchedulerAndTransport() {
	if e.serial != nil {
		e.serial.Close()
	}
	_ = e.transport.Close()
}

func (e *Endpoint) transportName() string {
	if e.capabilities.Name != "" {
		return e.capabilities.Name
	}
	return e.Conf.PubSubSystem
}

// RegisterHTTPHandler mounts handler on the HTTP server for port. Servers are
// started by Start.
func (e *Endpoint) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	if e.httpServers == nil {
		e.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := e.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		e.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (e *Endpoint) startHTTPServers() {
	e.httpServersMu.Lock()
	defer e.httpServersMu.Unlock()

	for port, mux := range e.httpServers {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		e.running = append(e.running, srv)
		e.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": srv.Addr})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": srv.Addr})
			}
		}()
	}
	e.httpServers = nil
}

func (e *Endpoint) stopHTTPServers() error {
	e.httpServersMu.Lock()
	servers := e.running
	e.running = nil
	e.httpServersMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		errs = append(errs, srv.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
