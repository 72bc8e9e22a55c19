package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type tab struct{ id string }

func TestDispatcherExports(t *testing.T) {
	d := NewDispatcher(Options[tab]{
		Identity: "Y",
		Handlers: Handlers[tab]{
			"add": func(_ context.Context, args Args, _ tab) (any, error) {
				return args["a"].(int) + args["b"].(int), nil
			},
		},
	})

	responses := make(chan Message, 1)
	async := d.Dispatch(context.Background(), NewRequest("X", "Y", "1", "add", Args{"a": 2, "b": 3}), tab{id: "t1"}, func(m Message) {
		responses <- m
	})
	if !async {
		t.Fatal("expected request to be scheduled")
	}

	select {
	case res := <-responses:
		if res.Result != 5 || res.To != "X" || res.From != "Y" {
			t.Fatalf("unexpected response %#v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}

func TestAwaitExport(t *testing.T) {
	d := NewDispatcher(Options[tab]{})
	f := d.WaitForResponse("7")
	d.Dispatch(context.Background(), Message{Type: TypeResponse, ID: "7", Result: "ok"}, tab{}, nil)

	got, err := Await[string](context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("expected ok, got %q", got)
	}
}

func TestRequestExport(t *testing.T) {
	d := NewDispatcher(Options[tab]{})
	boom := errors.New("offline")

	_, err := Request(context.Background(), d, NewRequest("X", "Y", NewCorrelationID(), "ping", nil), func(context.Context, Message) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestTruthyExport(t *testing.T) {
	if Truthy(0) || Truthy("") || !Truthy("x") {
		t.Fatal("truthiness alias does not match runtime")
	}
}

func TestCodecExports(t *testing.T) {
	codec, err := CodecByName(CodecProto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := codec.(ProtoCodec); !ok {
		t.Fatalf("expected ProtoCodec, got %T", codec)
	}
	if _, err := CodecByName("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("expected unknown codec error, got %v", err)
	}
}

func TestNewEndpointExportValidatesConfig(t *testing.T) {
	if _, err := NewEndpoint(nil, NewNopServiceLogger(), context.Background(), EndpointDependencies{}); !errors.Is(err, ErrConfigRequired) {
		t.Fatalf("expected config required error, got %v", err)
	}
}

func TestChannelTransportIsRegistered(t *testing.T) {
	if !DefaultTransportRegistry.Has("channel") {
		t.Fatal("expected the channel transport to be registered")
	}
}

func TestLoggerExports(t *testing.T) {
	logger := NewEntryServiceLogger(&stubEntry{})
	logger.Info("boot", LogFields{"component": "test"})

	NewZapServiceLogger(zap.NewNop()).Debug("boot", nil)
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	if _, err := Marshal(payload); err != nil {
		t.Fatalf("marshal alias failed: %v", err)
	}
	if _, err := MarshalIndent(payload, "", "  "); err != nil {
		t.Fatalf("marshal indent alias failed: %v", err)
	}
	if err := Unmarshal([]byte(`{"hello":"world"}`), &payload); err != nil {
		t.Fatalf("unmarshal alias failed: %v", err)
	}
}

func TestMetadataExport(t *testing.T) {
	md := NewMetadata(MetadataKeyCorrelationID, "value")
	if md[MetadataKeyCorrelationID] != "value" {
		t.Fatalf("expected metadata to contain key, got %#v", md)
	}
}

func TestCorrelationIDExport(t *testing.T) {
	id := NewCorrelationID()
	if _, ok := CorrelationTime(id); !ok {
		t.Fatalf("expected %q to carry a timestamp", id)
	}
}

type stubEntry struct {
	fields LogFields
	err    error
}

func (s *stubEntry) Error(args ...any) {}
func (s *stubEntry) Info(args ...any)  {}
func (s *stubEntry) Debug(args ...any) {}
func (s *stubEntry) Trace(args ...any) {}

func (s *stubEntry) WithError(err error) *stubEntry {
	clone := *s
	clone.err = err
	return &clone
}

func (s *stubEntry) WithField(key string, value any) *stubEntry {
	clone := *s
	if clone.fields == nil {
		clone.fields = make(LogFields)
	}
	clone.fields[key] = value
	return &clone
}
