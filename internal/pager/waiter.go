package pager

import (
	"context"
	"time"
)

// Waiter pauses the loop. Implementations return early with ctx.Err() when
// the context is cancelled.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepWaiter waits on the wall clock
type SleepWaiter struct{}

// Wait implements Waiter
func (SleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoWait returns immediately, for tests and dry runs
type NoWait struct{}

// Wait implements Waiter
func (NoWait) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
