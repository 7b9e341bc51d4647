// Package guard serializes ledger work on account lock domains.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/lock"
)

// Guard runs work while holding the lock domains of the accounts it touches.
type Guard struct {
	locker  lock.Locker
	timeout time.Duration
}

// New creates a Guard that waits at most timeout for all of its locks.
func New(locker lock.Locker, timeout time.Duration) *Guard {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &Guard{locker: locker, timeout: timeout}
}

// Run acquires the domains of numbers in ascending order and calls fn.
// A wait that exceeds the bound fails with account.ErrOperationTimeout. Once the
// locks are held fn runs on a context that ignores the caller's cancellation, so
// a started commit is never abandoned halfway.
func (g *Guard) Run(ctx context.Context, fn func(ctx context.Context) error, numbers ...string) error {
	release, err := lock.AcquireOrdered(ctx, g.locker, g.timeout, numbers...)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return fmt.Errorf("%w: %w", account.ErrOperationTimeout, err)
		}
		return err
	}
	defer release()
	return fn(context.WithoutCancel(ctx))
}
