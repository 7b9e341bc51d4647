package memory

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
)

type transactionRepository struct {
	store *Store
	ws    *writeSet
}

// NewTransactionRepository returns a read-only view of the committed log.
func NewTransactionRepository(store *Store) repository.TransactionRepository {
	return &transactionRepository{store: store}
}

func (r *transactionRepository) Append(_ context.Context, records ...*account.Transaction) error {
	if r.ws == nil {
		return repository.ErrNoUnitOfWork
	}
	// the caller's records receive their Sequence when the unit commits
	r.ws.appends = append(r.ws.appends, records...)
	return nil
}

func (r *transactionRepository) Get(_ context.Context, id uuid.UUID) (*account.Transaction, error) {
	if r.ws != nil {
		for _, rec := range r.ws.appends {
			if rec.ID == id {
				return rec.Clone(), nil
			}
		}
	}
	return r.store.getRecord(id)
}

func (r *transactionRepository) ListByAccount(_ context.Context, number string) ([]*account.Transaction, error) {
	out := r.store.listByAccount(number)
	if r.ws != nil {
		for _, rec := range r.ws.appends {
			if rec.AccountNumber == number {
				out = append(out, rec.Clone())
			}
		}
	}
	return out, nil
}

func (r *transactionRepository) ListByCorrelation(
	_ context.Context,
	correlationID uuid.UUID,
) ([]*account.Transaction, error) {
	out := r.store.listByCorrelation(correlationID)
	if r.ws != nil {
		for _, rec := range r.ws.appends {
			if rec.CorrelationID == correlationID {
				out = append(out, rec.Clone())
			}
		}
	}
	return out, nil
}

func (r *transactionRepository) FindByIdempotencyKey(
	_ context.Context,
	number, key string,
) (*account.Transaction, error) {
	if r.ws != nil {
		for _, rec := range r.ws.appends {
			if rec.AccountNumber == number && rec.IdempotencyKey == key {
				return rec.Clone(), nil
			}
		}
	}
	return r.store.findByIdempotencyKey(number, key)
}
