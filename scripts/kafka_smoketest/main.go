// Command kafka_smoketest publishes ledger events through the Kafka event bus and waits
// for its own consumers to receive them, to check a local cluster end to end.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/google/uuid"
)

// RunSmokeTest emits one event per type and returns once every event came back.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "ledger-smoketest-" + uuid.NewString()[:8]
	}

	cfg := infraeventbus.DefaultKafkaEventBusConfig()
	cfg.GroupID = groupID
	cfg.TopicPrefix = "ledger.smoketest"
	bus, err := infraeventbus.NewWithKafka(brokers, logger, cfg)
	if err != nil {
		logger.Error("kafka unavailable", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	now := time.Now().UTC()
	amount := money.MustParse("1.00", money.USD)
	number := "900000000001"
	published := []events.Event{
		&events.TransactionPosted{
			TransactionID: uuid.New(),
			AccountNumber: number,
			Kind:          "DEPOSIT",
			Amount:        amount,
			BalanceAfter:  amount,
			CorrelationID: uuid.New(),
			OccurredAt:    now,
		},
		&events.AccountStatusChanged{
			AccountNumber: number,
			From:          "ACTIVE",
			To:            "BLOCKED",
			Reason:        "smoke test",
			OccurredAt:    now,
		},
	}

	var wg sync.WaitGroup
	for _, evt := range published {
		wg.Add(1)
		var once sync.Once
		bus.Register(events.EventType(evt.Type()), func(_ context.Context, got events.Event) error {
			if got.PartitionKey() == number {
				logger.Info("consumed", "event_type", got.Type())
				once.Do(wg.Done)
			}
			return nil
		})
	}

	for _, evt := range published {
		if err := bus.Emit(ctx, evt); err != nil {
			logger.Error("emit failed", "event_type", evt.Type(), "error", err)
			return err
		}
		logger.Info("produced", "event_type", evt.Type())
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("kafka smoke test passed")
		return nil
	case <-ctx.Done():
		return errors.New("timed out waiting for events to come back")
	}
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
