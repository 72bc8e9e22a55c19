package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
)

const tracerName = "github.com/drblury/relay"

// SendResponse delivers an outbound response envelope. How it travels is the
// transport's business.
type SendResponse func(Message)

// ErrorEncoder renders a handler failure into the Error field of a response.
type ErrorEncoder func(error) any

// Options configures a Dispatcher. Only Handlers is commonly set; everything
// else has a usable zero value.
type Options[S any] struct {
	// Identity is this dispatcher's own address. When set, envelopes whose To
	// differs are ignored.
	Identity string
	// PeerIdentity, when set, additionally requires From to match.
	PeerIdentity string
	// Handlers is the initial registry.
	Handlers Handlers[S]

	Logger       loggingpkg.ServiceLogger
	Scheduler    Scheduler
	ErrorEncoder ErrorEncoder
	Hooks        HandlerHooks
	Metrics      *DispatcherMetrics
	// TracerProvider defaults to the global otel provider.
	TracerProvider trace.TracerProvider
}

// Dispatcher routes inbound envelopes to handlers and resolves responses
// against the futures handed out by WaitForResponse. It is safe for
// concurrent use.
type Dispatcher[S any] struct {
	identity     string
	peerIdentity string

	registry *handlerRegistry[S]
	pending  *pendingTable

	logger      loggingpkg.ServiceLogger
	scheduler   Scheduler
	encodeError ErrorEncoder
	hooks       HandlerHooks
	metrics     *DispatcherMetrics
	tracer      trace.Tracer
}

// HandlerPanicError is reported when a handler panics.
type HandlerPanicError struct {
	Method string
	Value  any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("relay: handler %q panicked: %v", e.Method, e.Value)
}

// NewDispatcher builds a dispatcher from opts.
func NewDispatcher[S any](opts Options[S]) *Dispatcher[S] {
	logger := loggingpkg.OrNop(opts.Logger)
	if opts.Identity != "" {
		logger = logger.With(loggingpkg.LogFields{"identity": opts.Identity})
	}

	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = GoroutineScheduler{}
	}

	encode := opts.ErrorEncoder
	if encode == nil {
		encode = passthroughError
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Dispatcher[S]{
		identity:     opts.Identity,
		peerIdentity: opts.PeerIdentity,
		registry:     newHandlerRegistry(opts.Handlers),
		pending:      newPendingTable(opts.Metrics.SetPending),
		logger:       logger,
		scheduler:    scheduler,
		encodeError:  encode,
		hooks:        opts.Hooks,
		metrics:      opts.Metrics,
		tracer:       tp.Tracer(tracerName),
	}
}

// Identity returns the configured own address.
func (d *Dispatcher[S]) Identity() string {
	return d.identity
}

// WaitForResponse returns the future for id, creating the pending entry if
// needed. Calls for the same unresolved id share one future. Call it before
// sending the request so the response cannot arrive first.
func (d *Dispatcher[S]) WaitForResponse(id string) *Future {
	p, _ := d.pending.getOrCreate(id)
	return p.future
}

// abandon drops the pending entry for id without completing its future. A
// response arriving later is treated as stray.
func (d *Dispatcher[S]) abandon(id string) bool {
	_, ok := d.pending.take(id)
	return ok
}

// UpdateHandlers replaces the whole registry. Invocations already scheduled
// keep the handler they were scheduled with.
func (d *Dispatcher[S]) UpdateHandlers(handlers Handlers[S]) {
	d.registry.replace(handlers)
	d.logger.Debug("Handlers updated", loggingpkg.LogFields{"methods": d.registry.methods()})
}

// Handlers lists the registered method names in sorted order.
func (d *Dispatcher[S]) Handlers() []string {
	return d.registry.methods()
}

// Pending reports how many correlation ids await a response.
func (d *Dispatcher[S]) Pending() int {
	return d.pending.len()
}

// Dispatch routes one inbound envelope. It returns true only for a request
// whose handler was scheduled; sendResponse will then be called exactly once,
// later, from the scheduler. Dispatch never panics on bad input and never
// runs a handler before returning.
func (d *Dispatcher[S]) Dispatch(ctx context.Context, msg Message, sender S, sendResponse SendResponse) bool {
	if !d.accepts(msg) {
		d.metrics.RecordMessage(msg.Type, OutcomeIgnored)
		d.logger.Trace("Ignoring message for another address", msg.logFields())
		return false
	}
	if err := msg.Validate(); err != nil {
		d.metrics.RecordMessage(msg.Type, OutcomeInvalid)
		d.logger.Error("Invalid message", err, msg.logFields())
		return false
	}

	switch msg.Type {
	case TypeRequest:
		return d.handleRequest(ctx, msg, sender, sendResponse)
	case TypeNotification:
		d.handleNotification(ctx, msg, sender)
	case TypeResponse:
		d.handleResponse(msg)
	}
	return false
}

func (d *Dispatcher[S]) accepts(msg Message) bool {
	if d.identity != "" && msg.To != d.identity {
		return false
	}
	if d.peerIdentity != "" && msg.From != d.peerIdentity {
		return false
	}
	return true
}

func (d *Dispatcher[S]) handleRequest(ctx context.Context, req Message, sender S, sendResponse SendResponse) bool {
	h, ok := d.registry.lookup(req.Method)
	if !ok {
		d.metrics.RecordMessage(req.Type, OutcomeNoHandler)
		d.logger.Error("No handler for method", nil, req.logFields())
		return false
	}
	d.metrics.RecordMessage(req.Type, OutcomeDispatched)

	ctx = detach(ctx)
	d.scheduler.Schedule(func() {
		result, err := d.invoke(ctx, h, req, sender)

		var res Message
		if err != nil {
			res = NewResponse(req, nil, d.failureValue(err))
		} else {
			res = NewResponse(req, result, nil)
		}
		d.deliver(sendResponse, res)
	})
	return true
}

func (d *Dispatcher[S]) handleNotification(ctx context.Context, ntf Message, sender S) {
	h, ok := d.registry.lookup(ntf.Method)
	if !ok {
		d.metrics.RecordMessage(ntf.Type, OutcomeNoHandler)
		d.logger.Error("No handler for method", nil, ntf.logFields())
		return
	}
	d.metrics.RecordMessage(ntf.Type, OutcomeDispatched)

	ctx = detach(ctx)
	d.scheduler.Schedule(func() {
		if _, err := d.invoke(ctx, h, ntf, sender); err != nil {
			d.logger.Error("Failed to handle notification", err, ntf.logFields())
		}
	})
}

func (d *Dispatcher[S]) handleResponse(res Message) {
	p, ok := d.pending.take(res.ID)
	if !ok {
		d.metrics.RecordMessage(res.Type, OutcomeStray)
		d.logger.Error("Stray response", nil, res.logFields())
		return
	}

	if res.IsFailure() {
		d.metrics.RecordMessage(res.Type, OutcomeRejected)
		p.reject(res.Error)
		return
	}
	d.metrics.RecordMessage(res.Type, OutcomeResolved)
	p.fulfill(res.Result)
}

// invoke runs one handler with tracing, hooks and panic recovery.
func (d *Dispatcher[S]) invoke(ctx context.Context, h Handler[S], msg Message, sender S) (result any, err error) {
	kind := trace.SpanKindConsumer
	if msg.Type == TypeRequest {
		kind = trace.SpanKindServer
	}
	ctx, span := d.tracer.Start(ctx, "relay.handle "+msg.Method,
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("relay.type", string(msg.Type)),
			attribute.String("relay.method", msg.Method),
			attribute.String("relay.id", msg.ID),
			attribute.String("relay.from", msg.From),
			attribute.String("relay.to", msg.To),
		),
	)
	defer span.End()

	hctx := HandlerContext{
		Type:      msg.Type,
		Method:    msg.Method,
		ID:        msg.ID,
		From:      msg.From,
		To:        msg.To,
		Context:   ctx,
		StartedAt: time.Now(),
	}
	if d.hooks.OnHandlerStart != nil {
		d.hooks.OnHandlerStart(hctx)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &HandlerPanicError{Method: msg.Method, Value: r}
		}

		hctx.Duration = time.Since(hctx.StartedAt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if d.hooks.OnHandlerError != nil {
				d.hooks.OnHandlerError(hctx, err)
			}
			return
		}
		if d.hooks.OnHandlerDone != nil {
			d.hooks.OnHandlerDone(hctx)
		}
	}()

	args := msg.Args
	if args == nil {
		args = Args{}
	}
	return h(ctx, args, sender)
}

// failureValue encodes err and makes sure the result is truthy, otherwise the
// requester would read the failure as a success.
func (d *Dispatcher[S]) failureValue(err error) any {
	encoded := d.encodeError(err)
	if Truthy(encoded) {
		return encoded
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "handler failed"
}

func (d *Dispatcher[S]) deliver(sendResponse SendResponse, res Message) {
	if sendResponse == nil {
		d.logger.Error("Dropping response, no sender supplied", nil, res.logFields())
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Response sender panicked", fmt.Errorf("%v", r), res.logFields())
		}
	}()
	sendResponse(res)
}

func passthroughError(err error) any {
	return err
}

// EncodeErrorMessage renders a handler failure as its message string, which
// survives any wire codec.
func EncodeErrorMessage(err error) any {
	var panicErr *HandlerPanicError
	if errors.As(err, &panicErr) {
		return fmt.Sprintf("handler %q panicked", panicErr.Method)
	}
	return err.Error()
}

// detach keeps ctx values such as the trace span but drops its cancellation:
// the handler runs after the transport may have finished with ctx.
func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
