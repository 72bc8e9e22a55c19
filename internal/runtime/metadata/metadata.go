// Package metadata holds the string headers that travel next to an envelope
// payload.
package metadata

// Metadata represents the headers carried alongside an envelope. Helpers never
// mutate the receiver.
type Metadata map[string]string

// New constructs a Metadata map from alternating key/value pairs. A trailing
// key without a value is ignored.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}

// With returns a copy with key set to value. An empty value removes the key,
// so optional routing fields are either present and meaningful or absent.
func (m Metadata) With(key, value string) Metadata {
	out := m.copyWithRoom(1)
	if value == "" {
		delete(out, key)
		return out
	}
	out[key] = value
	return out
}

// Merge returns a copy holding m's entries overlaid with other's.
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.copyWithRoom(len(other))
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (m Metadata) copyWithRoom(extra int) Metadata {
	out := make(Metadata, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Routing is the envelope addressing mirrored into headers.
type Routing struct {
	Type          string
	From          string
	To            string
	CorrelationID string
	Method        string
	ContentType   string
}

// Routing reads the relay headers. Missing headers come back empty.
func (m Metadata) Routing() Routing {
	return Routing{
		Type:          m[KeyType],
		From:          m[KeyFrom],
		To:            m[KeyTo],
		CorrelationID: m[KeyCorrelationID],
		Method:        m[KeyMethod],
		ContentType:   m[KeyContentType],
	}
}
