package metadata

import (
	"maps"

	"github.com/ThreeDotsLabs/watermill/message"
)

// FromWatermill copies Watermill headers. The result is never nil and does
// not alias md, so it is safe to hand to asynchronous loggers.
func FromWatermill(md message.Metadata) Metadata {
	out := Metadata(maps.Clone(md))
	if out == nil {
		out = Metadata{}
	}
	return out
}

// ToWatermill copies m into the map type Watermill messages carry.
func ToWatermill(m Metadata) message.Metadata {
	out := message.Metadata(maps.Clone(m))
	if out == nil {
		out = message.Metadata{}
	}
	return out
}
