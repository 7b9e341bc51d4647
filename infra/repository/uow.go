package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// All repositories handed out inside Do share the same *gorm.DB transaction, so an
// account update and its log records commit together.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
// Nested calls join the enclosing transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx}
		return fn(txnUow)
	})
}

func (u *UoW) session() (*gorm.DB, bool) {
	if u.tx != nil {
		return u.tx, true
	}
	return u.db, false
}

// AccountRepository returns the Account Store bound to the current session.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	db, inTx := u.session()
	return &accountRepository{db: db, inTx: inTx}, nil
}

// TransactionRepository returns the Transaction Log bound to the current session.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	db, inTx := u.session()
	return &transactionRepository{db: db, inTx: inTx}, nil
}
