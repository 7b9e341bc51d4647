// Package ledger applies deposits, withdrawals and transfers to account balances.
//
// Every mutation runs under the lock domains of the accounts it touches and commits
// the balance update together with its transaction records in one unit of work.
// Events are emitted only after the commit and never undo it.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/internal/guard"
	"github.com/google/uuid"
)

// Engine is the ledger core. It is safe for concurrent use.
type Engine struct {
	uow    repository.UnitOfWork
	guard  *guard.Guard
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine from the shared dependencies.
func NewEngine(deps config.Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		uow:    deps.Uow,
		guard:  guard.New(deps.Locker, deps.LockTimeout()),
		bus:    deps.EventBus,
		logger: logger.With("service", "ledger"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Result is the outcome of a single account operation.
type Result struct {
	Balance     money.Money
	Transaction *account.Transaction
	// Replayed is set when the outcome was recorded by an earlier call with the same idempotency key.
	Replayed bool
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	FromBalance money.Money
	ToBalance   money.Money
	Debit       *account.Transaction
	Credit      *account.Transaction
	Replayed    bool
}

// CorrelationID returns the id shared by both legs.
func (r *TransferResult) CorrelationID() uuid.UUID {
	return r.Debit.CorrelationID
}

// Option customizes a single ledger operation.
type Option func(*options)

type options struct {
	idempotencyKey string
}

// WithIdempotencyKey makes the operation safe to retry. A repeated call with the same
// key on the same account returns the recorded outcome instead of applying it twice.
func WithIdempotencyKey(key string) Option {
	return func(o *options) { o.idempotencyKey = key }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GetBalance returns the last committed balance. It never waits on account locks.
func (e *Engine) GetBalance(ctx context.Context, number string) (money.Money, error) {
	acc, err := e.GetAccount(ctx, number)
	if err != nil {
		return money.Money{}, err
	}
	return acc.Balance, nil
}

// GetAccount returns a snapshot of the account.
func (e *Engine) GetAccount(ctx context.Context, number string) (*account.Account, error) {
	repo, err := e.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	acc, err := repo.Get(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", number, err)
	}
	return acc, nil
}

// ListByUser lists the accounts owned by userID.
func (e *Engine) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	repo, err := e.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	accounts, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts of %s: %w", userID, err)
	}
	return accounts, nil
}
