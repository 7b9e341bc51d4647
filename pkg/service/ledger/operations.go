package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/internal/emitter"
)

// Deposit credits amount to an ACTIVE account and logs one DEPOSIT record.
func (e *Engine) Deposit(
	ctx context.Context,
	number string,
	amount money.Money,
	narration string,
	opts ...Option,
) (*Result, error) {
	logger := e.logger.With("op", "deposit", "account", number, "amount", amount.String())
	logger.Info("Deposit started")

	res, err := e.post(ctx, number, account.KindDeposit, amount, narration, applyOptions(opts))
	if err != nil {
		logger.Error("Deposit failed", "error", err)
		return nil, fmt.Errorf("deposit to %s: %w", number, err)
	}
	logger.Info("Deposit successful", "transaction_id", res.Transaction.ID, "replayed", res.Replayed)
	return res, nil
}

// Withdraw debits amount from an ACTIVE account and logs one WITHDRAWAL record.
// The available balance may go negative only down to the overdraft limit.
func (e *Engine) Withdraw(
	ctx context.Context,
	number string,
	amount money.Money,
	narration string,
	opts ...Option,
) (*Result, error) {
	logger := e.logger.With("op", "withdraw", "account", number, "amount", amount.String())
	logger.Info("Withdraw started")

	res, err := e.post(ctx, number, account.KindWithdrawal, amount, narration, applyOptions(opts))
	if err != nil {
		logger.Error("Withdraw failed", "error", err)
		return nil, fmt.Errorf("withdraw from %s: %w", number, err)
	}
	logger.Info("Withdraw successful", "transaction_id", res.Transaction.ID, "replayed", res.Replayed)
	return res, nil
}

func (e *Engine) post(
	ctx context.Context,
	number string,
	kind account.Kind,
	amount money.Money,
	narration string,
	o options,
) (*Result, error) {
	if !amount.IsPositive() {
		return nil, account.ErrInvalidAmount
	}

	var res *Result
	err := e.guard.Run(ctx, func(ctx context.Context) error {
		return e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			txs, err := uow.TransactionRepository()
			if err != nil {
				return err
			}

			if o.idempotencyKey != "" {
				prior, err := findPrior(ctx, txs, number, o.idempotencyKey)
				if err != nil {
					return err
				}
				if prior != nil {
					if prior.Kind != kind || !prior.Amount.Abs().Equals(amount) {
						return idempotencyConflict(o.idempotencyKey)
					}
					res = &Result{Balance: prior.BalanceAfter, Transaction: prior, Replayed: true}
					return nil
				}
			}

			acc, err := accounts.Get(ctx, number)
			if err != nil {
				return err
			}
			now := e.now()
			if kind == account.KindDeposit {
				err = acc.Credit(amount, now)
			} else {
				err = acc.Debit(amount, now)
			}
			if err != nil {
				return err
			}
			if err := accounts.Update(ctx, acc); err != nil {
				return err
			}
			rec := account.NewTransaction(acc, kind, amount, narration, now).
				WithIdempotencyKey(o.idempotencyKey)
			if err := txs.Append(ctx, rec); err != nil {
				return err
			}
			res = &Result{Balance: acc.Balance, Transaction: rec}
			return nil
		})
	}, number)
	if err != nil {
		return nil, err
	}

	if !res.Replayed {
		emitter.Emit(ctx, e.bus, e.logger, postedEvent(res.Transaction))
	}
	return res, nil
}

// Transfer moves amount from one ACTIVE account to another of the same currency.
// Both balances and both records commit together or not at all.
func (e *Engine) Transfer(
	ctx context.Context,
	from, to string,
	amount money.Money,
	narration string,
	opts ...Option,
) (*TransferResult, error) {
	logger := e.logger.With("op", "transfer", "from", from, "to", to, "amount", amount.String())
	logger.Info("Transfer started")

	res, err := e.transfer(ctx, from, to, amount, narration, applyOptions(opts))
	if err != nil {
		logger.Error("Transfer failed", "error", err)
		return nil, fmt.Errorf("transfer %s -> %s: %w", from, to, err)
	}
	logger.Info("Transfer successful", "correlation_id", res.CorrelationID(), "replayed", res.Replayed)
	return res, nil
}

func (e *Engine) transfer(
	ctx context.Context,
	from, to string,
	amount money.Money,
	narration string,
	o options,
) (*TransferResult, error) {
	if from == to {
		return nil, account.ErrInvalidTransfer
	}
	if !amount.IsPositive() {
		return nil, account.ErrInvalidAmount
	}

	var res *TransferResult
	err := e.guard.Run(ctx, func(ctx context.Context) error {
		return e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			txs, err := uow.TransactionRepository()
			if err != nil {
				return err
			}

			if o.idempotencyKey != "" {
				prior, err := findPrior(ctx, txs, from, o.idempotencyKey)
				if err != nil {
					return err
				}
				if prior != nil {
					res, err = replayTransfer(ctx, txs, prior, to, amount, o.idempotencyKey)
					return err
				}
			}

			// rows are locked in the same order as the lock domains
			loaded := make(map[string]*account.Account, 2)
			for _, n := range ascending(from, to) {
				acc, err := accounts.Get(ctx, n)
				if err != nil {
					return err
				}
				loaded[n] = acc
			}
			src, dst := loaded[from], loaded[to]

			if err := src.ValidateDebit(amount); err != nil {
				return err
			}
			if err := dst.ValidateCredit(amount); err != nil {
				return err
			}
			now := e.now()
			if err := src.Debit(amount, now); err != nil {
				return err
			}
			if err := dst.Credit(amount, now); err != nil {
				return err
			}
			if err := accounts.Update(ctx, src); err != nil {
				return err
			}
			if err := accounts.Update(ctx, dst); err != nil {
				return err
			}

			debit, credit := account.NewTransferLegs(src, dst, amount, narration, now)
			debit.WithIdempotencyKey(o.idempotencyKey)
			if err := txs.Append(ctx, debit, credit); err != nil {
				return err
			}
			res = &TransferResult{
				FromBalance: src.Balance,
				ToBalance:   dst.Balance,
				Debit:       debit,
				Credit:      credit,
			}
			return nil
		})
	}, from, to)
	if err != nil {
		return nil, err
	}

	if !res.Replayed {
		emitter.Emit(ctx, e.bus, e.logger,
			postedEvent(res.Debit),
			postedEvent(res.Credit),
			&events.TransferCompleted{
				CorrelationID: res.CorrelationID(),
				From:          from,
				To:            to,
				Amount:        amount,
				OccurredAt:    res.Debit.CreatedAt,
			},
		)
	}
	return res, nil
}

// findPrior returns the record logged under key, or nil when the key is unused.
func findPrior(
	ctx context.Context,
	txs repository.TransactionRepository,
	number, key string,
) (*account.Transaction, error) {
	prior, err := txs.FindByIdempotencyKey(ctx, number, key)
	if errors.Is(err, account.ErrTransactionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prior, nil
}

func replayTransfer(
	ctx context.Context,
	txs repository.TransactionRepository,
	prior *account.Transaction,
	to string,
	amount money.Money,
	key string,
) (*TransferResult, error) {
	if prior.Kind != account.KindDebit || prior.CounterpartyNumber != to || !prior.Amount.Abs().Equals(amount) {
		return nil, idempotencyConflict(key)
	}
	legs, err := txs.ListByCorrelation(ctx, prior.CorrelationID)
	if err != nil {
		return nil, err
	}
	res := &TransferResult{Debit: prior, FromBalance: prior.BalanceAfter, Replayed: true}
	for _, leg := range legs {
		if leg.Kind == account.KindCredit {
			res.Credit = leg
			res.ToBalance = leg.BalanceAfter
		}
	}
	if res.Credit == nil {
		return nil, fmt.Errorf("credit leg of %s: %w", prior.CorrelationID, account.ErrTransactionNotFound)
	}
	return res, nil
}

func idempotencyConflict(key string) error {
	return fmt.Errorf("%w: idempotency key %q was used for a different operation", account.ErrConflict, key)
}

func ascending(a, b string) []string {
	if b < a {
		return []string{b, a}
	}
	return []string{a, b}
}

func postedEvent(rec *account.Transaction) *events.TransactionPosted {
	return &events.TransactionPosted{
		TransactionID:      rec.ID,
		Sequence:           rec.Sequence,
		AccountNumber:      rec.AccountNumber,
		CounterpartyNumber: rec.CounterpartyNumber,
		Kind:               rec.Kind.String(),
		Amount:             rec.Amount,
		BalanceAfter:       rec.BalanceAfter,
		CorrelationID:      rec.CorrelationID,
		OccurredAt:         rec.CreatedAt,
	}
}
