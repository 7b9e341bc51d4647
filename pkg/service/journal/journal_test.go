package journal_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/journal"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*journal.Service, *ledger.Engine, *memory.UoW) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.NewUoW(memory.NewStore())
	deps := config.Deps{Uow: uow, Locker: lock.NewKeyedMutex(), Logger: logger}
	return journal.NewService(deps), ledger.NewEngine(deps), uow
}

func open(t *testing.T, uow *memory.UoW, number, balance string) {
	t.Helper()
	acc, err := account.New().
		WithNumber(number).
		WithUserID(uuid.New()).
		WithType(account.TypeCurrent).
		WithOverdraftLimit(usd("100.00").Amount()).
		WithBalance(usd(balance).Amount()).
		Build()
	require.NoError(t, err)
	require.NoError(t, uow.Do(context.Background(), func(tx repository.UnitOfWork) error {
		repo, err := tx.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(context.Background(), acc)
	}))
}

func usd(v string) money.Money {
	return money.MustParse(v, money.USD)
}

func TestReplayRoundTrip(t *testing.T) {
	svc, engine, uow := setup(t)
	open(t, uow, "100000000001", "250.00")
	open(t, uow, "100000000002", "0.00")
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		amount, err := money.FromMinor(rand.Int64N(10000)+1, money.USD)
		require.NoError(t, err)
		switch rand.IntN(3) {
		case 0:
			_, _ = engine.Deposit(ctx, "100000000001", amount, "")
		case 1:
			_, _ = engine.Withdraw(ctx, "100000000001", amount, "")
		default:
			_, _ = engine.Transfer(ctx, "100000000001", "100000000002", amount, "")
		}
	}

	for _, number := range []string{"100000000001", "100000000002"} {
		stored, err := engine.GetBalance(ctx, number)
		require.NoError(t, err)
		replayed, err := svc.Replay(ctx, number)
		require.NoError(t, err)
		assert.True(t, replayed.Equals(stored), "%s: replayed %s, stored %s", number, replayed, stored)

		v, err := svc.Verify(ctx, number)
		require.NoError(t, err)
		assert.True(t, v.Stored.Equals(stored))
	}
}

func TestHistoryAndCorrelation(t *testing.T) {
	svc, engine, uow := setup(t)
	open(t, uow, "100000000001", "100.00")
	open(t, uow, "100000000002", "0.00")
	ctx := context.Background()

	_, err := engine.Deposit(ctx, "100000000001", usd("5.00"), "first")
	require.NoError(t, err)
	res, err := engine.Transfer(ctx, "100000000001", "100000000002", usd("10.00"), "second")
	require.NoError(t, err)

	history, err := svc.History(ctx, "100000000001")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Narration)
	assert.Equal(t, account.KindDebit, history[1].Kind)

	legs, err := svc.ByCorrelation(ctx, res.CorrelationID())
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "100000000001", legs[0].AccountNumber)
	assert.Equal(t, "100000000002", legs[1].AccountNumber)

	_, err = svc.ByCorrelation(ctx, uuid.New())
	assert.ErrorIs(t, err, account.ErrTransactionNotFound)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	svc, _, uow := setup(t)
	open(t, uow, "100000000001", "100.00")
	ctx := context.Background()

	// balance changed without a log record
	require.NoError(t, uow.Do(ctx, func(tx repository.UnitOfWork) error {
		repo, _ := tx.AccountRepository()
		acc, err := repo.Get(ctx, "100000000001")
		if err != nil {
			return err
		}
		if err := acc.Credit(usd("1.00"), time.Now()); err != nil {
			return err
		}
		return repo.Update(ctx, acc)
	}))

	v, err := svc.Verify(ctx, "100000000001")
	require.ErrorIs(t, err, account.ErrLedgerMismatch)
	assert.True(t, v.Replayed.Equals(usd("100.00")))
	assert.True(t, v.Stored.Equals(usd("101.00")))
}

func TestVerifyUnknownAccount(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Verify(context.Background(), "404")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}
