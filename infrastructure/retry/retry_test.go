package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("busy")

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		IsRetryable:  func(err error) bool { return errors.Is(err, errBusy) },
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	err := retry.Retry(context.Background(), fastConfig(2), func() error { return errBusy })

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	require.ErrorIs(t, err, errBusy)
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Retry(ctx, fastConfig(3), func() error { return nil })
	require.ErrorIs(t, err, retry.ErrContextCancelled)
}

func TestDefaultIsRetryable(t *testing.T) {
	assert.False(t, retry.DefaultIsRetryable(nil))
	assert.True(t, retry.DefaultIsRetryable(errors.New("dial tcp: Connection Refused")))
	assert.False(t, retry.DefaultIsRetryable(errors.New("bad request")))
}
