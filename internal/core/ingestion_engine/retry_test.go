package ingestion_engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetriesSucceedsFirstAttempt(t *testing.T) {
	attempts, err := withRetries(context.Background(), 3, time.Millisecond, time.Second, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetriesRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	attempts, err := withRetries(context.Background(), 3, time.Millisecond, time.Second, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetriesExhaustsBudget(t *testing.T) {
	sentinel := errors.New("persistent")
	attempts, err := withRetries(context.Background(), 2, time.Millisecond, time.Second, func(context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, attempts, "one initial attempt plus two retries")
}

func TestWithRetriesStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts, err := withRetries(ctx, 5, time.Millisecond, time.Second, func(context.Context) error {
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts, "no retries after the caller gives up")
}

func TestWithRetriesAppliesPerAttemptTimeout(t *testing.T) {
	attempts, err := withRetries(context.Background(), 1, time.Millisecond, 10*time.Millisecond, func(opCtx context.Context) error {
		<-opCtx.Done()
		return opCtx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, attempts, "a timed-out attempt is retried, not fatal")
}
