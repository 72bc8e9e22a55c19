package runtime

import (
	"context"
	"sort"
	"sync/atomic"
)

// Handler serves one method. args is never nil. sender is the transport
// context passed to Dispatch, untouched.
type Handler[S any] func(ctx context.Context, args Args, sender S) (any, error)

// Handlers maps method names to handlers.
type Handlers[S any] map[string]Handler[S]

// handlerRegistry publishes an immutable snapshot of the handler map. A
// snapshot is never mutated after it is stored, so a lookup made during one
// dispatch cannot see a mix of old and new handlers.
type handlerRegistry[S any] struct {
	current atomic.Pointer[Handlers[S]]
}

func newHandlerRegistry[S any](initial Handlers[S]) *handlerRegistry[S] {
	r := &handlerRegistry[S]{}
	r.replace(initial)
	return r
}

// replace swaps in a copy of handlers. The caller may keep mutating its own
// map afterwards without affecting dispatch.
func (r *handlerRegistry[S]) replace(handlers Handlers[S]) {
	snapshot := make(Handlers[S], len(handlers))
	for method, h := range handlers {
		if h != nil {
			snapshot[method] = h
		}
	}
	r.current.Store(&snapshot)
}

func (r *handlerRegistry[S]) lookup(method string) (Handler[S], bool) {
	snapshot := r.current.Load()
	h, ok := (*snapshot)[method]
	return h, ok
}

func (r *handlerRegistry[S]) methods() []string {
	snapshot := r.current.Load()
	names := make([]string, 0, len(*snapshot))
	for name := range *snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
