// Package channel provides the in-memory Go channel transport. Every endpoint
// built from it in one process shares a single bus, so endpoints can address
// each other without a broker.
package channel

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/relay/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

const outputBuffer = 64

var (
	busOnce sync.Once
	bus     *gochannel.GoChannel
)

// Factory allows overriding the channel creation for testing. The default
// hands out the process-wide bus.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	busOnce.Do(func() {
		bus = gochannel.NewGoChannel(cfg, logger)
	})
	shared := sharedBus{GoChannel: bus}
	return shared, shared
}

// sharedBus outlives any single endpoint, so closing it through a transport
// is a no-op.
type sharedBus struct {
	*gochannel.GoChannel
}

func (sharedBus) Close() error { return nil }

func init() {
	Register()
}

// Register registers the channel transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
}

// NewBus returns a private bus with the settings Build uses. Endpoints given
// the same bus can reach each other; nothing else can.
func NewBus(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(busConfig(), logger)
}

// Build returns a transport on the process-wide bus.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	pub, sub := Factory(busConfig(), logger)
	return transport.Transport{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}

func busConfig() gochannel.Config {
	return gochannel.Config{OutputChannelBuffer: outputBuffer}
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}
