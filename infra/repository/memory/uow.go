package memory

import (
	"context"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

type stagedUpdate struct {
	acc      *account.Account
	expected int64
}

// writeSet is the staged state of one unit of work.
type writeSet struct {
	creates     map[string]*account.Account
	createOrder []string
	updates     map[string]*stagedUpdate
	appends     []*account.Transaction
}

func newWriteSet() *writeSet {
	return &writeSet{
		creates: make(map[string]*account.Account),
		updates: make(map[string]*stagedUpdate),
	}
}

// staged returns the uncommitted view of an account written by this unit of work.
func (w *writeSet) staged(number string) (*account.Account, bool) {
	if u, ok := w.updates[number]; ok {
		return u.acc, true
	}
	acc, ok := w.creates[number]
	return acc, ok
}

// UoW implements repository.UnitOfWork on top of a Store.
type UoW struct {
	store *Store
	ws    *writeSet
}

// NewUoW creates a new UoW for the given Store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn against a fresh write set and commits it if fn succeeds.
// Nested calls join the enclosing unit of work.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.ws != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	txnUow := &UoW{store: u.store, ws: newWriteSet()}
	if err := fn(txnUow); err != nil {
		return err
	}
	if err := u.store.commit(txnUow.ws); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AccountRepository returns the Account Store bound to this unit of work.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepository{store: u.store, ws: u.ws}, nil
}

// TransactionRepository returns the Transaction Log bound to this unit of work.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepository{store: u.store, ws: u.ws}, nil
}
