// Package lock enforces a single writer of the state file across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/retry"
)

// ErrLockHeld is returned while another run owns the lock.
var ErrLockHeld = errors.New("run lock is held by another process")

// ErrNotHeld is returned by Release when this locker does not own the lock.
var ErrNotHeld = errors.New("run lock not held")

// Locker guards one state file. Acquire blocks until the lock is obtained,
// the wait expires or ctx ends.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

const (
	maxAttempts  = 1000
	initialDelay = 100 * time.Millisecond
	maxDelay     = 2 * time.Second
	multiplier   = 1.5
)

// acquire calls try with backoff for at most wait while it reports ErrLockHeld.
func acquire(ctx context.Context, wait time.Duration, try func(context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	err := retry.Retry(waitCtx, retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
		Multiplier:   multiplier,
		IsRetryable: func(err error) bool {
			return errors.Is(err, ErrLockHeld)
		},
	}, func() error {
		return try(waitCtx)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && waitCtx.Err() != nil {
		return fmt.Errorf("%w: gave up after %s", ErrLockHeld, wait)
	}
	return err
}
