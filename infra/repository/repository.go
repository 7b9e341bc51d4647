package repository

import (
	"context"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
	// inTx is set for repositories bound to a unit of work. Reads then lock the row.
	inTx bool
}

// NewAccountRepository creates an Account Store reading committed state from db.
// Writes through it fail with repository.ErrNoUnitOfWork.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	if !r.inTx {
		return repository.ErrNoUnitOfWork
	}
	a.Version = 1
	m := mapAccountToModel(a)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *accountRepository) Get(ctx context.Context, number string) (*account.Account, error) {
	var m Account
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("number = ?", number).First(&m).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelToAccount(&m)
}

// Update performs a compare-and-swap on the version column.
func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	if !r.inTx {
		return repository.ErrNoUnitOfWork
	}
	m := mapAccountToModel(a)
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("number = ? AND version = ?", a.Number, a.Version).
		Updates(map[string]any{
			"balance":         m.Balance,
			"holds":           m.Holds,
			"overdraft_limit": m.OverdraftLimit,
			"interest_rate":   m.InterestRate,
			"status":          m.Status,
			"status_reason":   m.StatusReason,
			"version":         a.Version + 1,
			"updated_at":      m.UpdatedAt,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %s at version %d", account.ErrConflict, a.Number, a.Version)
	}
	a.Version++
	return nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	var models []Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("number").
		Find(&models).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Account, 0, len(models))
	for i := range models {
		a, err := mapModelToAccount(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
