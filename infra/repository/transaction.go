package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewTransactionRepository creates a Transaction Log reading committed records from db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Append(ctx context.Context, records ...*account.Transaction) error {
	if !r.inTx {
		return repository.ErrNoUnitOfWork
	}
	if len(records) == 0 {
		return nil
	}
	models := make([]Transaction, 0, len(records))
	for _, rec := range records {
		models = append(models, mapTransactionToModel(rec))
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return mapTransactionError(err)
	}
	for i := range models {
		records[i].Sequence = models[i].Sequence
	}
	return nil
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapTransactionError(err)
	}
	return mapModelToTransaction(&m)
}

func (r *transactionRepository) ListByAccount(ctx context.Context, number string) ([]*account.Transaction, error) {
	var models []Transaction
	if err := r.db.WithContext(ctx).
		Where("account_number = ?", number).
		Order("sequence").
		Find(&models).Error; err != nil {
		return nil, mapTransactionError(err)
	}
	return mapModelsToTransactions(models)
}

func (r *transactionRepository) ListByCorrelation(
	ctx context.Context,
	correlationID uuid.UUID,
) ([]*account.Transaction, error) {
	var models []Transaction
	if err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("sequence").
		Find(&models).Error; err != nil {
		return nil, mapTransactionError(err)
	}
	return mapModelsToTransactions(models)
}

func (r *transactionRepository) FindByIdempotencyKey(
	ctx context.Context,
	number, key string,
) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).
		Where("account_number = ? AND idempotency_key = ?", number, key).
		First(&m).Error; err != nil {
		return nil, mapTransactionError(err)
	}
	return mapModelToTransaction(&m)
}
