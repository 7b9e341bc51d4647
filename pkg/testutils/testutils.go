// Package testutils starts the throwaway infrastructure used by integration tests.
package testutils

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/database"
	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	infrarepository "github.com/amirasaad/ledger/infra/repository"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetupPostgres starts a PostgreSQL container, applies the migrations and returns
// a connection. The container is terminated when the test ends.
func SetupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	container, err := startPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	db, err := database.Open(&config.DB{URL: dsn, MaxOpenConns: 20, MaxIdleConns: 5})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := database.Migrate(db, DiscardLogger()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// PostgresDeps wires the ledger services against db with in-process locks and a
// memory event bus.
func PostgresDeps(db *gorm.DB, lockTimeout time.Duration) config.Deps {
	logger := DiscardLogger()
	return config.Deps{
		Uow:      infrarepository.NewUoW(db),
		Locker:   lock.NewKeyedMutex(),
		EventBus: infraeventbus.NewWithMemory(logger),
		Logger:   logger,
		Config: &config.App{Ledger: &config.Ledger{
			LockTimeout:   lockTimeout,
			DefaultBranch: "LEDG0000001",
		}},
	}
}

func startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
}
