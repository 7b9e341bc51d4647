package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
)

type accountRepository struct {
	store *Store
	ws    *writeSet
}

// NewAccountRepository returns a read-only view of committed accounts.
// Writes through it fail with repository.ErrNoUnitOfWork.
func NewAccountRepository(store *Store) repository.AccountRepository {
	return &accountRepository{store: store}
}

func (r *accountRepository) Create(_ context.Context, acc *account.Account) error {
	if r.ws == nil {
		return repository.ErrNoUnitOfWork
	}
	if _, ok := r.ws.staged(acc.Number); ok {
		return fmt.Errorf("%w: %s", account.ErrAccountAlreadyExists, acc.Number)
	}
	if _, err := r.store.getAccount(acc.Number); err == nil {
		return fmt.Errorf("%w: %s", account.ErrAccountAlreadyExists, acc.Number)
	}
	acc.Version = 1
	r.ws.creates[acc.Number] = acc.Clone()
	r.ws.createOrder = append(r.ws.createOrder, acc.Number)
	return nil
}

func (r *accountRepository) Get(_ context.Context, number string) (*account.Account, error) {
	if r.ws != nil {
		if acc, ok := r.ws.staged(number); ok {
			return acc.Clone(), nil
		}
	}
	return r.store.getAccount(number)
}

func (r *accountRepository) Update(ctx context.Context, acc *account.Account) error {
	if r.ws == nil {
		return repository.ErrNoUnitOfWork
	}
	current, err := r.Get(ctx, acc.Number)
	if err != nil {
		return err
	}
	if current.Version != acc.Version {
		return fmt.Errorf("%w: account %s version %d, expected %d",
			account.ErrConflict, acc.Number, current.Version, acc.Version)
	}
	expected := acc.Version
	if prev, ok := r.ws.updates[acc.Number]; ok {
		expected = prev.expected
	} else if _, created := r.ws.creates[acc.Number]; created {
		expected = 0
	}
	acc.Version++
	r.ws.updates[acc.Number] = &stagedUpdate{acc: acc.Clone(), expected: expected}
	return nil
}

func (r *accountRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*account.Account, error) {
	accounts := r.store.listByUser(userID)
	if r.ws == nil {
		return accounts, nil
	}
	seen := make(map[string]int, len(accounts))
	for i, acc := range accounts {
		seen[acc.Number] = i
	}
	for _, number := range r.ws.createOrder {
		acc, _ := r.ws.staged(number)
		if acc.UserID == userID {
			accounts = append(accounts, acc.Clone())
		}
	}
	for number, u := range r.ws.updates {
		if i, ok := seen[number]; ok {
			accounts[i] = u.acc.Clone()
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Number < accounts[j].Number })
	return accounts, nil
}
