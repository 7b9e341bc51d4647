package transaction

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository is the append-only Transaction Log.
// Listings are ordered by commit sequence.
type Repository interface {
	// Append adds records to the log. It is only available inside a unit of work
	// and assigns each record its Sequence when the unit commits.
	Append(ctx context.Context, records ...*account.Transaction) error

	// Get returns a record by id.
	Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error)

	// ListByAccount lists every record of an account.
	ListByAccount(ctx context.Context, number string) ([]*account.Transaction, error)

	// ListByCorrelation lists the records sharing a correlation id, such as both legs of a transfer.
	ListByCorrelation(ctx context.Context, correlationID uuid.UUID) ([]*account.Transaction, error)

	// FindByIdempotencyKey returns the record an account logged under key,
	// or account.ErrTransactionNotFound.
	FindByIdempotencyKey(ctx context.Context, number, key string) (*account.Transaction, error)
}
