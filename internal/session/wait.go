package session

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned when a committed session never becomes readable
// within the configured window.
var ErrWaitTimeout = errors.New("timed out waiting for session to become readable")

// WaitAuthenticated confirms by readback that a freshly written session is
// visible. Set already awaits the store commit, so this usually returns on
// the first probe; the bounded loop is a guard against replicated stores
// acknowledging before the read path catches up. It always terminates:
// timeout, context cancellation, or success.
func WaitAuthenticated(ctx context.Context, store Store, id string, interval, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		_, err := store.Get(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrWaitTimeout
		case <-tick.C:
		}
	}
}
