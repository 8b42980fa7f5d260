package ingestion_engine

import (
	"context"
	"time"
)

// withRetries runs op with a per-attempt timeout and quadratic backoff
// between attempts. It returns how many attempts were made along with the
// final error. maxRetries counts attempts beyond the first; cancellation of
// the outer context stops retrying immediately.
func withRetries(ctx context.Context, maxRetries int, base, timeout time.Duration, op func(context.Context) error) (int, error) {
	attempts := 0
	for {
		attempts++

		opCtx := ctx
		cancel := func() {}
		if timeout > 0 {
			opCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		err := op(opCtx)
		cancel()

		if err == nil {
			return attempts, nil
		}
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}
		if attempts > maxRetries {
			return attempts, err
		}

		backoff := time.Duration(attempts*attempts) * base
		if sleepErr := sleepWithContext(ctx, backoff); sleepErr != nil {
			return attempts, sleepErr
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
