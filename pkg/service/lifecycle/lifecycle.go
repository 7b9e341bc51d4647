// Package lifecycle moves accounts between ACTIVE, BLOCKED and CLOSED.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/internal/emitter"
	"github.com/amirasaad/ledger/pkg/service/internal/guard"
)

// Manager applies status transitions under the same lock domains as the ledger engine,
// so a transition never interleaves with a balance mutation of the same account.
type Manager struct {
	uow    repository.UnitOfWork
	guard  *guard.Guard
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager from the shared dependencies. Pass the same Locker
// the ledger engine uses.
func NewManager(deps config.Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		uow:    deps.Uow,
		guard:  guard.New(deps.Locker, deps.LockTimeout()),
		bus:    deps.EventBus,
		logger: logger.With("service", "lifecycle"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Block moves an ACTIVE account to BLOCKED. A non blank reason is required.
func (m *Manager) Block(ctx context.Context, number, reason string) (*account.Account, error) {
	return m.transition(ctx, "block", number, reason, func(acc *account.Account, at time.Time) error {
		return acc.Block(reason, at)
	})
}

// Unblock moves a BLOCKED account back to ACTIVE.
func (m *Manager) Unblock(ctx context.Context, number string) (*account.Account, error) {
	return m.transition(ctx, "unblock", number, "", func(acc *account.Account, at time.Time) error {
		return acc.Unblock(at)
	})
}

// Close moves an ACTIVE or BLOCKED account with a zero balance to CLOSED for good.
func (m *Manager) Close(ctx context.Context, number, reason string) (*account.Account, error) {
	return m.transition(ctx, "close", number, reason, func(acc *account.Account, at time.Time) error {
		return acc.Close(reason, at)
	})
}

func (m *Manager) transition(
	ctx context.Context,
	op, number, reason string,
	apply func(acc *account.Account, at time.Time) error,
) (*account.Account, error) {
	logger := m.logger.With("op", op, "account", number)
	logger.Info("Status change started")

	var (
		updated *account.Account
		from    account.Status
	)
	err := m.guard.Run(ctx, func(ctx context.Context) error {
		return m.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			acc, err := repo.Get(ctx, number)
			if err != nil {
				return err
			}
			from = acc.Status
			if err := apply(acc, m.now()); err != nil {
				return err
			}
			if err := repo.Update(ctx, acc); err != nil {
				return err
			}
			updated = acc
			return nil
		})
	}, number)
	if err != nil {
		logger.Error("Status change failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w", op, number, err)
	}

	logger.Info("Status change successful", "from", from.String(), "to", updated.Status.String())
	emitter.Emit(ctx, m.bus, m.logger, &events.AccountStatusChanged{
		AccountNumber: number,
		From:          from.String(),
		To:            updated.Status.String(),
		Reason:        updated.StatusReason,
		OccurredAt:    updated.UpdatedAt,
	})
	return updated, nil
}
