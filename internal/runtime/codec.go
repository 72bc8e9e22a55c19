package runtime

import (
	"fmt"
	"strings"

	errspkg "github.com/drblury/relay/internal/runtime/errors"
)

// Codec turns envelopes into wire payloads and back.
type Codec interface {
	Name() string
	Marshal(Message) ([]byte, error)
	Unmarshal([]byte) (Message, error)
}

// Codec names accepted by CodecByName and the codec config key.
const (
	CodecJSON  = "json"
	CodecProto = "proto"
)

// CodecByName resolves a codec from its configured name. An empty name
// selects JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecProto, "protobuf":
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errspkg.ErrUnknownCodec, name)
	}
}

// wireMessage prepares m for serialisation. Go error values have no useful
// JSON form, so a failure that is an error travels as its message.
func wireMessage(m Message) Message {
	if err, ok := m.Error.(error); ok && Truthy(err) {
		m.Error = err.Error()
	}
	return m
}
