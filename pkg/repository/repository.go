package repository

import (
	"errors"

	repoaccount "github.com/amirasaad/ledger/pkg/repository/account"
	repotransaction "github.com/amirasaad/ledger/pkg/repository/transaction"
)

// AccountRepository is the Account Store contract.
type AccountRepository = repoaccount.Repository

// TransactionRepository is the Transaction Log contract.
type TransactionRepository = repotransaction.Repository

// ErrNoUnitOfWork is returned when a write that must be atomic is attempted outside UnitOfWork.Do.
var ErrNoUnitOfWork = errors.New("operation requires a unit of work")
