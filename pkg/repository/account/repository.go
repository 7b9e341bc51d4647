package account

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository is the Account Store: keyed storage of accounts by account number.
type Repository interface {
	// Create inserts a new account. It fails with account.ErrAccountAlreadyExists
	// when the number is taken.
	Create(ctx context.Context, acc *account.Account) error

	// Get returns a snapshot of the account. Inside a unit of work backed by a
	// database the row is locked until commit.
	Get(ctx context.Context, number string) (*account.Account, error)

	// Update stores acc only if the stored version equals acc.Version, then
	// increments acc.Version. A stale version fails with account.ErrConflict.
	Update(ctx context.Context, acc *account.Account) error

	// ListByUser lists every account owned by userID ordered by account number.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error)
}
