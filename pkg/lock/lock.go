// Package lock provides per-key mutual exclusion with bounded waits.
//
// A key is one lock domain, in the ledger an account number. Callers that need
// several domains take them through AcquireOrdered, which always locks in
// ascending key order so two callers can never wait on each other in a cycle.
package lock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrTimeout is returned when a lock could not be acquired within the wait bound.
var ErrTimeout = errors.New("lock wait timed out")

// Locker acquires exclusive ownership of a key.
type Locker interface {
	// Acquire blocks until the key is owned by the caller or ctx is done.
	// The returned release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AcquireOrdered locks every distinct key in ascending order, waiting at most timeout
// in total. On failure the keys already taken are released before returning.
// The returned release func unlocks in reverse order.
func AcquireOrdered(ctx context.Context, l Locker, timeout time.Duration, keys ...string) (func(), error) {
	ordered := slices.Clone(keys)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	releases := make([]func(), 0, len(ordered))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range ordered {
		release, err := l.Acquire(waitCtx, key)
		if err != nil {
			releaseAll()
			// the caller's own cancellation is reported as is
			if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, key, timeout)
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
