// Package lock provides a Redis backed lock.Locker for ledgers that run on
// more than one instance.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL        = 30 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
	defaultKeyPrefix  = "ledger:lock:"
	releaseTimeout    = 2 * time.Second
)

// RedisLockerConfig configures a RedisLocker. Zero values fall back to defaults.
type RedisLockerConfig struct {
	// TTL bounds how long a lock survives a crashed holder.
	TTL        time.Duration
	RetryDelay time.Duration
	KeyPrefix  string
}

// RedisLocker implements lock.Locker with redsync mutexes. A wait is bounded only by
// the context, which lock.AcquireOrdered derives from the ledger lock timeout.
type RedisLocker struct {
	rs     *redsync.Redsync
	cfg    RedisLockerConfig
	logger *slog.Logger
}

// NewRedisLocker creates a locker on top of an existing go-redis client.
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger *slog.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis locker: client is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		cfg:    cfg,
		logger: logger.With("locker", "redis"),
	}, nil
}

// Acquire implements lock.Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := l.cfg.KeyPrefix + key
	mutex := l.rs.NewMutex(
		name,
		redsync.WithExpiry(l.cfg.TTL),
		redsync.WithTries(math.MaxInt32),
		redsync.WithRetryDelay(l.cfg.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		// redsync reports an expired wait as ErrFailed
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("redis lock %s: %w", name, ctxErr)
		}
		l.logger.Error("failed to acquire lock", "key", name, "error", err)
		return nil, fmt.Errorf("redis lock %s: %w", name, err)
	}
	l.logger.Debug("lock acquired", "key", name)

	var once sync.Once
	return func() {
		once.Do(func() { l.release(ctx, mutex, name) })
	}, nil
}

func (l *RedisLocker) release(ctx context.Context, mutex *redsync.Mutex, name string) {
	// release even when the holder's context is already gone
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if ok, err := mutex.UnlockContext(releaseCtx); !ok || err != nil {
		l.logger.Warn("failed to release lock", "key", name, "unlock_ok", ok, "error", err)
		return
	}
	l.logger.Debug("lock released", "key", name)
}

var _ lock.Locker = (*RedisLocker)(nil)
