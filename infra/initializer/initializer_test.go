package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	infralock "github.com/amirasaad/ledger/infra/lock"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeDependencies_MemoryDefaults(t *testing.T) {
	cfg := &config.App{
		Log:      &config.Log{Level: 8, Format: "text"},
		Ledger:   &config.Ledger{Store: "memory", Locker: "local", LockTimeout: time.Second},
		EventBus: &config.EventBus{Driver: "memory"},
	}

	deps, cleanup, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	assert.IsType(t, &memory.UoW{}, deps.Uow)
	assert.IsType(t, &lock.KeyedMutex{}, deps.Locker)
	assert.IsType(t, &infraeventbus.MemoryEventBus{}, deps.EventBus)
	assert.NotNil(t, deps.Logger)
	assert.Equal(t, time.Second, deps.LockTimeout())
}

func TestInitializeDependencies_RequiresLedgerConfig(t *testing.T) {
	_, _, err := InitializeDependencies(&config.App{})
	require.Error(t, err)
}

func TestInitializeDependencies_UnknownStoreErrors(t *testing.T) {
	cfg := &config.App{
		Log:    &config.Log{Level: 8},
		Ledger: &config.Ledger{Store: "sqlite"},
	}
	_, _, err := InitializeDependencies(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestInitLocker_UnknownLockerErrors(t *testing.T) {
	cfg := &config.App{Ledger: &config.Ledger{Locker: "zookeeper"}}
	_, _, err := initLocker(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitLocker_RedisRequiresURL(t *testing.T) {
	cfg := &config.App{
		Redis:  &config.Redis{URL: ""},
		Ledger: &config.Ledger{Locker: "redis"},
	}
	_, _, err := initLocker(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitLocker_Redis(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := &config.App{
		Redis: &config.Redis{URL: "redis://" + srv.Addr() + "/0", PoolSize: 2},
		Ledger: &config.Ledger{
			Locker:         "redis",
			LockTTL:        10 * time.Second,
			LockRetryDelay: 5 * time.Millisecond,
			LockKeyPrefix:  "test:lock:",
		},
	}

	locker, closeFn, err := initLocker(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	require.IsType(t, &infralock.RedisLocker{}, locker)

	release, err := locker.Acquire(t.Context(), "100000000001")
	require.NoError(t, err)
	assert.True(t, srv.Exists("test:lock:100000000001"))
	release()
	assert.False(t, srv.Exists("test:lock:100000000001"))
}

func TestInitLocker_RedisUnreachableErrors(t *testing.T) {
	cfg := &config.App{
		Redis:  &config.Redis{URL: "redis://127.0.0.1:1/0", DialTimeout: 200 * time.Millisecond},
		Ledger: &config.Ledger{Locker: "redis"},
	}
	_, _, err := initLocker(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitEventBus_DefaultsToMemoryWhenNoExplicitDriver(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: ""}}

	bus, _, err := initEventBus(cfg, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_ExplicitKafkaRequiresBrokers(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "kafka", KafkaBrokers: ""}}

	_, _, err := initEventBus(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitEventBus_KafkaConnectionErrorFallsBackToMemory(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "kafka", KafkaBrokers: "127.0.0.1:1"}}

	bus, _, err := initEventBus(cfg, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &infraeventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_UnsupportedDriverErrors(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "nope"}}

	_, _, err := initEventBus(cfg, discardLogger())
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(discardLogger()) })

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&config.Log{Format: "json"}, &buf)
		logger.Info("Deposit successful", "account", "100000000001")
		assert.Contains(t, buf.String(), `"account":"100000000001"`)
		assert.Contains(t, buf.String(), "Deposit successful")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&config.Log{Format: "logfmt", Level: int(slog.LevelWarn)}, &buf)
		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(nil, &buf)
		logger.Info("started")
		assert.Contains(t, buf.String(), "started")
	})
}
