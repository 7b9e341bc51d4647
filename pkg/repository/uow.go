package repository

import (
	"context"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Do runs fn in a transaction boundary. Repositories obtained from the UnitOfWork handed
// to fn share one session: every account update and log append made through them commits
// together or not at all. If fn returns an error nothing is applied.
//
// Repositories obtained outside Do serve snapshot reads of committed state.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
}
