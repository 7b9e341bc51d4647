package ledger_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingBus struct {
	mock.Mock
}

func (b *failingBus) Emit(ctx context.Context, event events.Event) error {
	return b.Called(event.Type()).Error(0)
}

func (b *failingBus) Register(events.EventType, eventbus.HandlerFunc) {}

func TestEmitFailureKeepsCommit(t *testing.T) {
	f := newFixture(t, time.Second)
	f.open(t, "100000000001", "100.00")
	f.open(t, "100000000002", "0.00")

	bus := new(failingBus)
	bus.On("Emit", events.EventTypeTransactionPosted.String()).Return(errors.New("broker down"))
	bus.On("Emit", events.EventTypeTransferCompleted.String()).Return(errors.New("broker down")).Once()

	engine := ledger.NewEngine(config.Deps{
		Uow:      memory.NewUoW(f.store),
		Locker:   f.locker,
		EventBus: bus,
		Logger:   slog.Default(),
	})

	_, err := engine.Deposit(context.Background(), "100000000001", usd("5.00"), "")
	require.NoError(t, err)
	_, err = engine.Transfer(context.Background(), "100000000001", "100000000002", usd("5.00"), "")
	require.NoError(t, err)

	assert.Equal(t, "100.00", f.balance(t, "100000000001"))
	assert.Equal(t, "5.00", f.balance(t, "100000000002"))
	bus.AssertNumberOfCalls(t, "Emit", 4)
}
