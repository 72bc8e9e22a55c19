package runtime

import "sync"

// pendingRequest is one entry of the correlation table.
type pendingRequest struct {
	future  *Future
	fulfill func(result any) bool
	reject  func(failure any) bool
}

func newPendingRequest() *pendingRequest {
	f := newFuture()
	return &pendingRequest{
		future:  f,
		fulfill: f.fulfill,
		reject:  f.reject,
	}
}

// pendingTable maps correlation ids to unresolved futures. Entries are created
// on first lookup and removed exactly once by take.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingRequest
	// onResize observes the size after each insert or removal. It runs under
	// mu, so observed sizes are never reordered.
	onResize func(int)
}

func newPendingTable(onResize func(int)) *pendingTable {
	return &pendingTable{
		entries:  make(map[string]*pendingRequest),
		onResize: onResize,
	}
}

func (t *pendingTable) resizedLocked() {
	if t.onResize != nil {
		t.onResize(len(t.entries))
	}
}

// getOrCreate returns the entry for id, creating it when absent.
func (t *pendingTable) getOrCreate(id string) (*pendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.entries[id]; ok {
		return p, false
	}
	p := newPendingRequest()
	t.entries[id] = p
	t.resizedLocked()
	return p, true
}

// take removes and returns the entry for id. Only the first caller for a
// given entry gets it.
func (t *pendingTable) take(id string) (*pendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
		t.resizedLocked()
	}
	return p, ok
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
