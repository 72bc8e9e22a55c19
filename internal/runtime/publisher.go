package runtime

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/propagation"

	errspkg "github.com/drblury/relay/internal/runtime/errors"
	idspkg "github.com/drblury/relay/internal/runtime/ids"
	metadatapkg "github.com/drblury/relay/internal/runtime/metadata"
)

// EnvelopeMetadata returns the headers published next to env. They mirror the
// routing fields so brokers and logs can inspect envelopes without decoding
// the payload.
func EnvelopeMetadata(env Message, codec Codec) metadatapkg.Metadata {
	return metadatapkg.New(
		metadatapkg.KeyType, string(env.Type),
		metadatapkg.KeyTo, env.To,
		metadatapkg.KeyContentType, metadatapkg.ContentType(codec.Name()),
	).
		With(metadatapkg.KeyFrom, env.From).
		With(metadatapkg.KeyCorrelationID, env.ID).
		With(metadatapkg.KeyMethod, env.Method)
}

// NewWatermillMessage encodes env with codec and wraps it in a Watermill
// message. When propagator is set, the trace context of ctx is injected into
// the metadata.
func NewWatermillMessage(ctx context.Context, codec Codec, env Message, propagator propagation.TextMapPropagator) (*message.Message, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	payload, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", env.Type, err)
	}

	md := EnvelopeMetadata(env, codec)
	if ctx == nil {
		ctx = context.Background()
	}
	if propagator != nil {
		carrier := propagation.MapCarrier{}
		propagator.Inject(ctx, carrier)
		md = md.Merge(metadatapkg.Metadata(carrier))
	}

	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata = metadatapkg.ToWatermill(md)
	msg.SetContext(ctx)
	return msg, nil
}

// PublishEnvelope encodes env and publishes it to topic.
func PublishEnvelope(ctx context.Context, publisher message.Publisher, topic string, codec Codec, env Message, propagator propagation.TextMapPropagator) error {
	if publisher == nil {
		return errspkg.ErrTransportRequired
	}
	if topic == "" || env.To == "" {
		return errspkg.ErrAddressRequired
	}

	msg, err := NewWatermillMessage(ctx, codec, env, propagator)
	if err != nil {
		return err
	}
	return publisher.Publish(topic, msg)
}
