package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/relay/transport"
	"github.com/drblury/relay/transport/transporttest"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	defer func() { transport.DefaultRegistry = original }()

	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "nats", caps.Name)
	assert.False(t, caps.SupportsOrdering)
	assert.True(t, caps.SupportsTracing)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.NATSCapabilities, Capabilities())
}

func applyOptions(t *testing.T, opts []natsgo.Option) natsgo.Options {
	t.Helper()
	o := natsgo.GetDefaultOptions()
	for _, opt := range opts {
		require.NoError(t, opt(&o))
	}
	return o
}

func TestConnectionOptions(t *testing.T) {
	t.Run("explicit client name and reconnects", func(t *testing.T) {
		o := applyOptions(t, ConnectionOptions(&transporttest.Config{
			Identity:          "billing",
			NATSClientName:    "billing-eu",
			NATSMaxReconnects: -1,
		}))

		assert.Equal(t, "billing-eu", o.Name)
		assert.Equal(t, -1, o.MaxReconnect)
		assert.Equal(t, reconnectWait, o.ReconnectWait)
	})

	t.Run("name falls back to identity", func(t *testing.T) {
		defaults := natsgo.GetDefaultOptions()
		o := applyOptions(t, ConnectionOptions(&transporttest.Config{Identity: "billing"}))

		assert.Equal(t, "billing", o.Name)
		assert.Equal(t, defaults.MaxReconnect, o.MaxReconnect)
	})
}

func restoreFactories(t *testing.T) {
	t.Helper()
	pub, sub := PublisherFactory, SubscriberFactory
	t.Cleanup(func() {
		PublisherFactory = pub
		SubscriberFactory = sub
	})
}

func TestBuild(t *testing.T) {
	t.Run("creates transport with mocked factories", func(t *testing.T) {
		restoreFactories(t)

		mockPub := &transporttest.Publisher{}
		mockSub := &transporttest.Subscriber{}
		PublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Equal(t, "nats://localhost:4222", cfg.URL)
			assert.True(t, cfg.JetStream.Disabled)
			assert.NotEmpty(t, cfg.NatsOptions)
			return mockPub, nil
		}
		SubscriberFactory = func(cfg nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			assert.Equal(t, "nats://localhost:4222", cfg.URL)
			assert.True(t, cfg.JetStream.Disabled)
			return mockSub, nil
		}

		tr, err := Build(context.Background(), &transporttest.Config{NATSURL: "nats://localhost:4222"}, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Equal(t, mockPub, tr.Publisher)
		assert.Equal(t, mockSub, tr.Subscriber)
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		restoreFactories(t)
		PublisherFactory = func(config nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), &transporttest.Config{NATSURL: "nats://localhost:4222"}, watermill.NopLogger{})
		assert.EqualError(t, err, "publisher error")
	})

	t.Run("closes publisher when subscriber factory fails", func(t *testing.T) {
		restoreFactories(t)
		mockPub := &transporttest.Publisher{}
		PublisherFactory = func(config nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return mockPub, nil
		}
		SubscriberFactory = func(config nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}

		_, err := Build(context.Background(), &transporttest.Config{NATSURL: "nats://localhost:4222"}, watermill.NopLogger{})
		assert.EqualError(t, err, "subscriber error")
		assert.True(t, mockPub.Closed)
	})
}
