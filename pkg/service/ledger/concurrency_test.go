package ledger_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestConcurrentDepositsAndWithdrawals_NoLostUpdate(t *testing.T) {
	for round := 0; round < 5; round++ {
		f := newFixture(t, 5*time.Second)
		f.open(t, "100000000001", "100.00")
		ctx := context.Background()

		var net atomic.Int64 // applied minor units
		var applied atomic.Int64
		g := new(errgroup.Group)
		for i := 0; i < 64; i++ {
			cents := rand.Int64N(5000) + 1
			deposit := rand.IntN(2) == 0
			g.Go(func() error {
				amount, _ := money.FromMinor(cents, money.USD)
				if deposit {
					if _, err := f.engine.Deposit(ctx, "100000000001", amount, ""); err != nil {
						return err
					}
					net.Add(cents)
					applied.Add(1)
					return nil
				}
				_, err := f.engine.Withdraw(ctx, "100000000001", amount, "")
				if errors.Is(err, account.ErrInsufficientFunds) {
					return nil
				}
				if err != nil {
					return err
				}
				net.Add(-cents)
				applied.Add(1)
				return nil
			})
		}
		require.NoError(t, g.Wait())

		got, err := f.engine.GetBalance(ctx, "100000000001")
		require.NoError(t, err)
		assert.Equal(t, 10000+net.Load(), got.Amount(), "round %d", round)
		assert.False(t, got.IsNegative(), "overdraft floor")
		assert.Len(t, f.records(t, "100000000001"), int(applied.Load()))
	}
}

func TestOpposingTransfers_DoNotDeadlock(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	f.open(t, "100000000001", "100.00")
	f.open(t, "100000000002", "100.00")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var completed atomic.Int64
	g := new(errgroup.Group)
	for i := 0; i < 100; i++ {
		from, to := "100000000001", "100000000002"
		if i%2 == 1 {
			from, to = to, from
		}
		g.Go(func() error {
			_, err := f.engine.Transfer(ctx, from, to, usd("10.00"), "")
			switch {
			case err == nil:
				completed.Add(1)
				return nil
			case errors.Is(err, account.ErrInsufficientFunds):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, ctx.Err(), "transfers finished within the bound")

	a, err := f.engine.GetBalance(context.Background(), "100000000001")
	require.NoError(t, err)
	b, err := f.engine.GetBalance(context.Background(), "100000000002")
	require.NoError(t, err)
	total, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, total.Equals(usd("200.00")), "money is conserved")
	assert.Positive(t, completed.Load())
	assert.Len(t, f.records(t, "100000000001"), int(completed.Load()))
}
