package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expenselens/receipt-engine/internal/common"
)

// runStage executes fn under its own deadline. A deadline hit comes back as
// ErrProviderTimeout so callers can treat it as a stage failure instead of
// aborting the receipt.
func runStage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %v", common.ErrProviderTimeout, err)
	}
	return out, err
}
