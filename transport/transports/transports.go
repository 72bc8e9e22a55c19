// Package transports imports all built-in transports for auto-registration.
// Import this package to have all transports registered with the default registry.
package transports

import (
	_ "github.com/drblury/relay/transport/channel"
	_ "github.com/drblury/relay/transport/http"
	_ "github.com/drblury/relay/transport/kafka"
	_ "github.com/drblury/relay/transport/nats"
	_ "github.com/drblury/relay/transport/rabbitmq"
)
