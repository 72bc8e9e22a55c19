package runtime

import (
	"context"
	"fmt"
	"sync"

	errspkg "github.com/drblury/relay/internal/runtime/errors"
)

// Future is the caller-visible side of a pending request. It completes once,
// either fulfilled with the response Result or rejected with its Error.
// All holders of the same Future observe the same outcome.
type Future struct {
	ch   chan struct{}
	once sync.Once

	mu      sync.Mutex
	result  any
	failure any
	failed  bool
}

func newFuture() *Future {
	return &Future{ch: make(chan struct{})}
}

func (f *Future) fulfill(result any) bool {
	return f.complete(result, nil, false)
}

func (f *Future) reject(failure any) bool {
	return f.complete(nil, failure, true)
}

// complete settles the future exactly once; later calls report false.
func (f *Future) complete(result, failure any, failed bool) bool {
	settled := false
	f.once.Do(func() {
		f.mu.Lock()
		f.result = result
		f.failure = failure
		f.failed = failed
		f.mu.Unlock()
		close(f.ch)
		settled = true
	})
	return settled
}

// Done returns a channel that is closed when the future completes.
func (f *Future) Done() <-chan struct{} {
	return f.ch
}

// Wait blocks until the future completes or ctx is done. A rejection is
// returned as the error: remote error values that already implement error are
// returned unchanged, anything else is wrapped in a *RemoteError.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.ch:
		result, failure, _ := f.Result()
		if f.isRejected() {
			return nil, asError(failure)
		}
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result reports the outcome without blocking. failure holds the raw remote
// Error value of a rejected future.
func (f *Future) Result() (result any, failure any, done bool) {
	select {
	case <-f.ch:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.failure, true
	default:
		return nil, nil, false
	}
}

// OnDone runs cb in its own goroutine once the future completes.
func (f *Future) OnDone(cb func(result, failure any)) {
	go func() {
		<-f.ch
		result, failure, _ := f.Result()
		cb(result, failure)
	}()
}

func (f *Future) isRejected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

// Await waits for f and converts the fulfilled value to T.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	var zero T
	result, err := f.Wait(ctx)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", errspkg.ErrUnexpectedResultType, result, zero)
	}
	return typed, nil
}

// RemoteError carries a non-error failure value from a response envelope.
type RemoteError struct {
	Value any
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("relay: remote error: %v", e.Value)
}

func asError(failure any) error {
	if err, ok := failure.(error); ok {
		return err
	}
	return &RemoteError{Value: failure}
}
