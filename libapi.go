package relay

import (
	"context"

	"go.uber.org/zap"

	runtimepkg "github.com/drblury/relay/internal/runtime"
	configpkg "github.com/drblury/relay/internal/runtime/config"
	errspkg "github.com/drblury/relay/internal/runtime/errors"
	idspkg "github.com/drblury/relay/internal/runtime/ids"
	jsoncodec "github.com/drblury/relay/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
	metadatapkg "github.com/drblury/relay/internal/runtime/metadata"
	transportpkg "github.com/drblury/relay/transport"

	// The in-memory transport is always available; import
	// github.com/drblury/relay/transport/transports for the brokers.
	_ "github.com/drblury/relay/transport/channel"
)

type (
	Message     = runtimepkg.Message
	MessageType = runtimepkg.MessageType
	Args        = runtimepkg.Args

	Handler[S any]    = runtimepkg.Handler[S]
	Handlers[S any]   = runtimepkg.Handlers[S]
	Dispatcher[S any] = runtimepkg.Dispatcher[S]
	Options[S any]    = runtimepkg.Options[S]
	SendResponse      = runtimepkg.SendResponse
	SendFunc          = runtimepkg.SendFunc
	ErrorEncoder      = runtimepkg.ErrorEncoder

	Future      = runtimepkg.Future
	RemoteError = runtimepkg.RemoteError

	HandlerPanicError = runtimepkg.HandlerPanicError

	Scheduler          = runtimepkg.Scheduler
	SchedulerFunc      = runtimepkg.SchedulerFunc
	GoroutineScheduler = runtimepkg.GoroutineScheduler
	SerialScheduler    = runtimepkg.SerialScheduler

	// Handler lifecycle hooks
	HandlerContext = runtimepkg.HandlerContext
	HandlerHooks   = runtimepkg.HandlerHooks

	DispatcherMetrics = runtimepkg.DispatcherMetrics

	Codec      = runtimepkg.Codec
	JSONCodec  = runtimepkg.JSONCodec
	ProtoCodec = runtimepkg.ProtoCodec

	Config                = configpkg.Config
	ConfigValidationError = errspkg.ConfigValidationError

	Endpoint               = runtimepkg.Endpoint
	EndpointDependencies   = runtimepkg.EndpointDependencies
	EndpointHandlers       = runtimepkg.EndpointHandlers
	EndpointStatus         = runtimepkg.EndpointStatus
	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration

	Metadata = metadatapkg.Metadata

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLogger               = loggingpkg.EntryLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

const (
	TypeRequest      = runtimepkg.TypeRequest
	TypeNotification = runtimepkg.TypeNotification
	TypeResponse     = runtimepkg.TypeResponse

	CodecJSON  = runtimepkg.CodecJSON
	CodecProto = runtimepkg.CodecProto
)

// Metadata keys set on every envelope published by an Endpoint.
const (
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
	MetadataKeyType          = metadatapkg.KeyType
	MetadataKeyMethod        = metadatapkg.KeyMethod
	MetadataKeyFrom          = metadatapkg.KeyFrom
	MetadataKeyTo            = metadatapkg.KeyTo
	MetadataKeyContentType   = metadatapkg.KeyContentType
)

var (
	NewRequest      = runtimepkg.NewRequest
	NewNotification = runtimepkg.NewNotification
	NewResponse     = runtimepkg.NewResponse
	Truthy          = runtimepkg.Truthy

	NewSerialScheduler = runtimepkg.NewSerialScheduler
	EncodeErrorMessage = runtimepkg.EncodeErrorMessage

	LoggingHooks  = runtimepkg.LoggingHooks
	MetricsHooks  = runtimepkg.MetricsHooks
	AlertingHooks = runtimepkg.AlertingHooks

	NewDispatcherMetrics = runtimepkg.NewDispatcherMetrics

	CodecByName = runtimepkg.CodecByName

	NewEndpoint    = runtimepkg.NewEndpoint
	LoadConfig     = configpkg.Load
	ValidateConfig = configpkg.ValidateConfig

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	PublishEnvelope     = runtimepkg.PublishEnvelope
	NewWatermillMessage = runtimepkg.NewWatermillMessage
	EnvelopeMetadata    = runtimepkg.EnvelopeMetadata

	// Modular transport registry.
	// Import individual transports via: _ "github.com/drblury/relay/transport/kafka"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrDispatcherRequired   = errspkg.ErrDispatcherRequired
	ErrMethodRequired       = errspkg.ErrMethodRequired
	ErrAddressRequired      = errspkg.ErrAddressRequired
	ErrUnknownMessageType   = errspkg.ErrUnknownMessageType
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrTransportRequired    = errspkg.ErrTransportRequired
	ErrConnectionRequired   = errspkg.ErrConnectionRequired
	ErrUnexpectedResultType = errspkg.ErrUnexpectedResultType
	ErrUnknownCodec         = errspkg.ErrUnknownCodec

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewNopServiceLogger       = loggingpkg.NewNopServiceLogger

	NewMetadata = metadatapkg.New

	NewCorrelationID = idspkg.NewCorrelationID
	CorrelationTime  = idspkg.CorrelationTime
)

func NewDispatcher[S any](opts Options[S]) *Dispatcher[S] {
	return runtimepkg.NewDispatcher(opts)
}

// Await waits for f and converts the fulfilled value to T.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	return runtimepkg.Await[T](ctx, f)
}

// Request sends req through send and waits for the matching response on d.
func Request[S any](ctx context.Context, d *Dispatcher[S], req Message, send SendFunc) (any, error) {
	return runtimepkg.Request(ctx, d, req, send)
}

func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}

func NewZapServiceLogger(logger *zap.Logger) ServiceLogger {
	return loggingpkg.NewZapServiceLogger(logger)
}
