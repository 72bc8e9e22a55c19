// Package ids generates identifiers for outbound envelopes.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
func CreateULID() string {
	return newULID(time.Now()).String()
}

// NewCorrelationID returns a fresh id for a request envelope. The dispatcher
// itself never generates ids; Endpoint.Call and the websocket peer use this.
func NewCorrelationID() string {
	return CreateULID()
}

// CorrelationTime extracts the creation time from an id produced by
// NewCorrelationID. ok is false for ids that are not ULIDs.
func CorrelationTime(id string) (t time.Time, ok bool) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}

func newULID(now time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy)
}
