package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/infra/database"
	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	infralock "github.com/amirasaad/ledger/infra/lock"
	infrarepository "github.com/amirasaad/ledger/infra/repository"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// InitializeDependencies builds the store, locker, event bus and logger selected by cfg.
// The returned cleanup func releases every opened connection.
func InitializeDependencies(cfg *config.App) (deps *config.Deps, cleanup func(), err error) {
	if cfg == nil || cfg.Ledger == nil {
		return nil, nil, errors.New("ledger config is required")
	}
	logger := setupLogger(cfg.Log)

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Failed to close resource", "error", err)
			}
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	uow, closeStore, err := initStore(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	closers = append(closers, closeStore)

	locker, closeLocker, err := initLocker(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize locker: %w", err)
	}
	closers = append(closers, closeLocker)

	bus, closeBus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	closers = append(closers, closeBus)

	return &config.Deps{
		Uow:      uow,
		Locker:   locker,
		EventBus: bus,
		Logger:   logger,
		Config:   cfg,
	}, closeAll, nil
}

func noopClose() error { return nil }

func initStore(cfg *config.App, logger *slog.Logger) (repository.UnitOfWork, func() error, error) {
	switch cfg.Ledger.Store {
	case "", "memory":
		logger.Warn("Using in-memory store; balances are lost on exit")
		return memory.NewUoW(memory.NewStore()), noopClose, nil
	case "postgres":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(db, logger); err != nil {
				_ = sqlDB.Close()
				return nil, nil, err
			}
		}
		logger.Info("Using PostgreSQL store")
		return infrarepository.NewUoW(db), sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store %q", cfg.Ledger.Store)
	}
}

func initLocker(cfg *config.App, logger *slog.Logger) (lock.Locker, func() error, error) {
	switch cfg.Ledger.Locker {
	case "", "local":
		return lock.NewKeyedMutex(), noopClose, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, errors.New("redis url is required for the redis locker")
		}
		client, err := newRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		locker, err := infralock.NewRedisLocker(client, infralock.RedisLockerConfig{
			TTL:        cfg.Ledger.LockTTL,
			RetryDelay: cfg.Ledger.LockRetryDelay,
			KeyPrefix:  cfg.Ledger.LockKeyPrefix,
		}, logger)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("Using Redis locker", "ttl", cfg.Ledger.LockTTL, "key_prefix", cfg.Ledger.LockKeyPrefix)
		return locker, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported locker %q", cfg.Ledger.Locker)
	}
}

func newRedisClient(cfg *config.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// initEventBus returns the configured bus. An unreachable Kafka cluster falls back
// to the in-memory bus since events never gate a commit.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, func() error, error) {
	driver := ""
	if cfg.EventBus != nil {
		driver = cfg.EventBus.Driver
	}
	switch driver {
	case "", "memory":
		return infraeventbus.NewWithMemory(logger), noopClose, nil
	case "kafka":
		if cfg.EventBus.KafkaBrokers == "" {
			return nil, nil, errors.New("kafka brokers are required for the kafka event bus")
		}
		bus, err := infraeventbus.NewWithKafka(cfg.EventBus.KafkaBrokers, logger, &infraeventbus.KafkaEventBusConfig{
			GroupID:       cfg.EventBus.KafkaGroupID,
			TopicPrefix:   cfg.EventBus.KafkaTopicPrefix,
			SASLUsername:  cfg.EventBus.KafkaSASLUsername,
			SASLPassword:  cfg.EventBus.KafkaSASLPassword,
			TLSEnabled:    cfg.EventBus.KafkaTLSEnabled,
			TLSSkipVerify: cfg.EventBus.KafkaTLSSkipVerify,
		})
		if err != nil {
			logger.Warn("Kafka unavailable, falling back to in-memory event bus", "error", err)
			return infraeventbus.NewWithMemory(logger), noopClose, nil
		}
		return bus, bus.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}
