// Package journal reads the transaction log and checks it against account balances.
package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/internal/guard"
	"github.com/google/uuid"
)

// Service answers audit queries over the transaction log.
type Service struct {
	uow    repository.UnitOfWork
	guard  *guard.Guard
	logger *slog.Logger
}

// NewService creates a new journal Service.
func NewService(deps config.Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uow:    deps.Uow,
		guard:  guard.New(deps.Locker, deps.LockTimeout()),
		logger: logger.With("service", "journal"),
	}
}

// Verification is the outcome of replaying one account's log.
type Verification struct {
	AccountNumber string
	Opening       money.Money
	Replayed      money.Money
	Stored        money.Money
	Records       int
}

// History lists an account's records in commit order.
func (s *Service) History(ctx context.Context, number string) ([]*account.Transaction, error) {
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	records, err := txs.ListByAccount(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", number, err)
	}
	return records, nil
}

// ByCorrelation lists the records sharing correlationID, both legs for a transfer.
func (s *Service) ByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]*account.Transaction, error) {
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	records, err := txs.ListByCorrelation(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: correlation %s", account.ErrTransactionNotFound, correlationID)
	}
	return records, nil
}

// Replay rebuilds the balance of an account from its opening balance and log.
func (s *Service) Replay(ctx context.Context, number string) (money.Money, error) {
	v, err := s.replay(ctx, number)
	if err != nil {
		return money.Money{}, err
	}
	return v.Replayed, nil
}

// Verify replays the log while holding the account's lock domain and compares the
// result with the stored balance. A difference fails with account.ErrLedgerMismatch.
func (s *Service) Verify(ctx context.Context, number string) (*Verification, error) {
	logger := s.logger.With("op", "verify", "account", number)

	var v *Verification
	err := s.guard.Run(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.replay(ctx, number)
		return err
	}, number)
	if err != nil {
		logger.Error("Verify failed", "error", err)
		return v, fmt.Errorf("verify %s: %w", number, err)
	}
	if !v.Replayed.Equals(v.Stored) {
		logger.Error("Ledger mismatch", "replayed", v.Replayed.String(), "stored", v.Stored.String())
		return v, fmt.Errorf("verify %s: %w: replayed %s, stored %s",
			number, account.ErrLedgerMismatch, v.Replayed, v.Stored)
	}
	logger.Debug("Ledger verified", "records", v.Records)
	return v, nil
}

func (s *Service) replay(ctx context.Context, number string) (*Verification, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	acc, err := accounts.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	records, err := s.History(ctx, number)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		AccountNumber: number,
		Opening:       acc.OpeningBalance,
		Stored:        acc.Balance,
		Records:       len(records),
	}
	running := acc.OpeningBalance
	for _, rec := range records {
		if running, err = running.Add(rec.Amount); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if !running.Equals(rec.BalanceAfter) {
			return nil, fmt.Errorf("%w: record %s expects balance %s, replay has %s",
				account.ErrLedgerMismatch, rec.ID, rec.BalanceAfter, running)
		}
	}
	v.Replayed = running
	return v, nil
}
