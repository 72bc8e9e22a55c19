package metadata

import "testing"

func TestWithSetsAndRemoves(t *testing.T) {
	base := New(KeyType, "request", KeyFrom, "X")

	withMethod := base.With(KeyMethod, "add")
	if withMethod[KeyMethod] != "add" {
		t.Fatalf("expected method header, got %#v", withMethod)
	}
	if _, ok := base[KeyMethod]; ok {
		t.Fatal("With must not mutate the receiver")
	}

	withoutFrom := withMethod.With(KeyFrom, "")
	if _, ok := withoutFrom[KeyFrom]; ok {
		t.Fatal("an empty value must remove the header")
	}
	if withMethod[KeyFrom] != "X" {
		t.Fatal("removal must not leak into the previous copy")
	}
}

func TestWithOnNilMetadata(t *testing.T) {
	var m Metadata
	if got := m.With(KeyTo, "Y"); got[KeyTo] != "Y" {
		t.Fatalf("expected header on nil receiver, got %#v", got)
	}
	if got := m.With(KeyTo, ""); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func TestMergeOverlays(t *testing.T) {
	base := New(KeyType, "response", "traceparent", "old")
	merged := base.Merge(Metadata{"traceparent": "new", "tracestate": "k=v"})

	if merged["traceparent"] != "new" || merged["tracestate"] != "k=v" || merged[KeyType] != "response" {
		t.Fatalf("unexpected merge result %#v", merged)
	}
	if base["traceparent"] != "old" {
		t.Fatal("Merge must not mutate the receiver")
	}
}

func TestNewIgnoresDanglingKey(t *testing.T) {
	md := New(KeyTo, "Y", KeyFrom)
	if len(md) != 1 || md[KeyTo] != "Y" {
		t.Fatalf("unexpected metadata %#v", md)
	}
}

func TestRouting(t *testing.T) {
	got := New(
		KeyType, "request",
		KeyFrom, "X",
		KeyTo, "Y",
		KeyCorrelationID, "42",
		KeyMethod, "add",
		KeyContentType, ContentType("json"),
	).Routing()

	want := Routing{Type: "request", From: "X", To: "Y", CorrelationID: "42", Method: "add", ContentType: "application/json"}
	if got != want {
		t.Fatalf("Routing() = %+v, want %+v", got, want)
	}
	if (Metadata{}).Routing() != (Routing{}) {
		t.Fatal("expected zero routing for empty metadata")
	}
}

func TestWatermillCopiesDoNotAlias(t *testing.T) {
	md := New(KeyTo, "Y")
	wm := ToWatermill(md)
	wm.Set(KeyTo, "Z")
	if md[KeyTo] != "Y" {
		t.Fatal("ToWatermill must copy")
	}

	back := FromWatermill(wm)
	back[KeyTo] = "W"
	if wm.Get(KeyTo) != "Z" {
		t.Fatal("FromWatermill must copy")
	}

	if FromWatermill(nil) == nil || ToWatermill(nil) == nil {
		t.Fatal("conversions must never return nil")
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("proto"); got != "application/x-protobuf" {
		t.Fatalf("unexpected proto content type %q", got)
	}
	if got := ContentType("json"); got != "application/json" {
		t.Fatalf("unexpected json content type %q", got)
	}
}
