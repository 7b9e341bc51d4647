package provisioning_test

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/service/provisioning"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, opts ...provisioning.Option) (*provisioning.Service, *memory.Store, *infraeventbus.MemoryEventBus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	bus := infraeventbus.NewWithMemory(logger)
	svc := provisioning.NewService(config.Deps{
		Uow:      memory.NewUoW(store),
		EventBus: bus,
		Logger:   logger,
		Config:   &config.App{Ledger: &config.Ledger{DefaultBranch: "LEDG0000001"}},
	}, opts...)
	return svc, store, bus
}

func TestOpen_Defaults(t *testing.T) {
	svc, store, bus := newService(t)
	owner := uuid.New()

	acc, err := svc.Open(context.Background(), provisioning.OpenRequest{
		UserID:         owner,
		OpeningBalance: decimal.RequireFromString("250.00"),
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{11}$`), acc.Number)
	assert.Equal(t, account.TypeSavings, acc.Type)
	assert.Equal(t, account.StatusActive, acc.Status)
	assert.Equal(t, "LEDG0000001", acc.BranchIFSC)
	assert.Equal(t, money.DefaultCode, acc.Currency())
	assert.True(t, acc.InterestRate.Equal(decimal.RequireFromString("3.50")))
	assert.Equal(t, int64(25000), acc.Balance.Amount())
	assert.True(t, acc.OpeningBalance.Equals(acc.Balance))

	stored, err := memory.NewAccountRepository(store).Get(context.Background(), acc.Number)
	require.NoError(t, err)
	assert.Equal(t, owner, stored.UserID)

	published := bus.Published()
	require.Len(t, published, 1)
	opened, ok := published[0].(*events.AccountOpened)
	require.True(t, ok)
	assert.Equal(t, acc.Number, opened.AccountNumber)
}

func TestOpen_CurrentWithOverdraft(t *testing.T) {
	svc, _, _ := newService(t)
	acc, err := svc.Open(context.Background(), provisioning.OpenRequest{
		UserID:         uuid.New(),
		Type:           account.TypeCurrent,
		Currency:       money.EUR,
		BranchIFSC:     "HDFC0001234",
		OverdraftLimit: decimal.RequireFromString("500"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), acc.OverdraftLimit.Amount())
	assert.True(t, acc.InterestRate.IsZero())
	assert.Equal(t, "HDFC0001234", acc.BranchIFSC)
}

func TestOpen_Validation(t *testing.T) {
	svc, _, bus := newService(t)
	rate := decimal.RequireFromString("1.25")

	tests := []struct {
		name    string
		req     provisioning.OpenRequest
		wantErr error
	}{
		{name: "no owner", req: provisioning.OpenRequest{}, wantErr: provisioning.ErrOwnerRequired},
		{name: "bad branch", req: provisioning.OpenRequest{UserID: uuid.New(), BranchIFSC: "hdfc0001234"}, wantErr: provisioning.ErrInvalidBranch},
		{name: "branch fifth char", req: provisioning.OpenRequest{UserID: uuid.New(), BranchIFSC: "HDFC1001234"}, wantErr: provisioning.ErrInvalidBranch},
		{name: "negative opening", req: provisioning.OpenRequest{UserID: uuid.New(), OpeningBalance: decimal.RequireFromString("-1")}, wantErr: account.ErrInvalidAmount},
		{name: "unknown type", req: provisioning.OpenRequest{UserID: uuid.New(), Type: "LOAN"}, wantErr: account.ErrInvalidType},
		{name: "overdraft on savings", req: provisioning.OpenRequest{UserID: uuid.New(), OverdraftLimit: decimal.RequireFromString("10"), InterestRate: &rate}, wantErr: account.ErrOverdraftNotAllowed},
		{name: "unsupported currency", req: provisioning.OpenRequest{UserID: uuid.New(), Currency: "XYZ"}, wantErr: money.ErrUnsupportedCurrency},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Open(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
	assert.Empty(t, bus.Published())
}

func TestOpen_RetriesNumberCollision(t *testing.T) {
	numbers := []string{"100000000001", "100000000001", "100000000002"}
	next := func() (string, error) {
		n := numbers[0]
		numbers = numbers[1:]
		return n, nil
	}
	svc, _, _ := newService(t, provisioning.WithNumberGenerator(next))

	first, err := svc.Open(context.Background(), provisioning.OpenRequest{UserID: uuid.New()})
	require.NoError(t, err)
	second, err := svc.Open(context.Background(), provisioning.OpenRequest{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "100000000001", first.Number)
	assert.Equal(t, "100000000002", second.Number)
}

func TestOpen_GivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, _, _ := newService(t, provisioning.WithNumberGenerator(func() (string, error) {
		return "100000000001", nil
	}))
	_, err := svc.Open(context.Background(), provisioning.OpenRequest{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), provisioning.OpenRequest{UserID: uuid.New()})
	assert.ErrorIs(t, err, account.ErrAccountAlreadyExists)
}

func TestRandomNumber(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		n, err := provisioning.RandomNumber()
		require.NoError(t, err)
		require.Len(t, n, 12)
		assert.NotEqual(t, byte('0'), n[0])
		seen[n] = struct{}{}
	}
	assert.Greater(t, len(seen), 95)
}
