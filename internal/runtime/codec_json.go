package runtime

import (
	"fmt"

	"github.com/drblury/relay/internal/runtime/jsoncodec"
)

// JSONCodec encodes envelopes as JSON objects. Numbers in Args, Result and
// Error decode as float64.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Marshal(m Message) ([]byte, error) {
	data, err := jsoncodec.Marshal(wireMessage(m))
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", m.Type, err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte) (Message, error) {
	var m Message
	if err := jsoncodec.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	return m, nil
}
