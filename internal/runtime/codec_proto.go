package runtime

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/drblury/relay/internal/runtime/jsoncodec"
)

// ProtoCodec encodes envelopes as a google.protobuf.Struct in binary wire
// format. Field names match the JSON codec, so both decode to the same Message.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return CodecProto }

func (ProtoCodec) Marshal(m Message) ([]byte, error) {
	// Round-trip through JSON first so arbitrary Go values in Args and Result
	// reduce to the kinds structpb understands.
	raw, err := jsoncodec.Marshal(wireMessage(m))
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", m.Type, err)
	}
	var fields map[string]any
	if err := jsoncodec.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", m.Type, err)
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", m.Type, err)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func (ProtoCodec) Unmarshal(data []byte) (Message, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	raw, err := jsoncodec.Marshal(s.AsMap())
	if err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	var m Message
	if err := jsoncodec.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	return m, nil
}
