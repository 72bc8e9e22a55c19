package runtime

import (
	"context"
	"fmt"

	errspkg "github.com/drblury/relay/internal/runtime/errors"
)

// SendFunc delivers an outbound envelope and reports transport failures.
type SendFunc func(ctx context.Context, env Message) error

// Request registers req.ID with d, sends req and waits for the response.
// When send fails or ctx ends first the pending entry is dropped, so a late
// response is logged as stray instead of lingering in the table.
func Request[S any](ctx context.Context, d *Dispatcher[S], req Message, send SendFunc) (any, error) {
	if d == nil {
		return nil, errspkg.ErrDispatcherRequired
	}
	if req.Type != TypeRequest {
		return nil, fmt.Errorf("%w: %q is not a request", errspkg.ErrUnknownMessageType, req.Type)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	future := d.WaitForResponse(req.ID)
	if err := send(ctx, req); err != nil {
		d.abandon(req.ID)
		return nil, err
	}

	result, err := future.Wait(ctx)
	if _, _, done := future.Result(); !done {
		d.abandon(req.ID)
	}
	return result, err
}
