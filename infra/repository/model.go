package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account record in the database.
// Accounts are never deleted, so there is no soft-delete column.
type Account struct {
	Number         string          `gorm:"primaryKey;size:20"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           string          `gorm:"type:varchar(20);not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	Balance        int64           `gorm:"not null"`
	Holds          int64           `gorm:"not null"`
	OverdraftLimit int64           `gorm:"not null"`
	OpeningBalance int64           `gorm:"not null"`
	InterestRate   decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Status         string          `gorm:"type:varchar(10);not null"`
	StatusReason   string          `gorm:"size:255"`
	BranchIFSC     string          `gorm:"column:branch_ifsc;type:varchar(11)"`
	Version        int64           `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents a persisted transaction log record.
type Transaction struct {
	Sequence           int64     `gorm:"primaryKey;autoIncrement"`
	ID                 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	AccountNumber      string    `gorm:"size:20;not null;index"`
	CounterpartyNumber string    `gorm:"size:20"`
	Kind               string    `gorm:"type:varchar(16);not null"`
	Amount             int64     `gorm:"not null"`
	Currency           string    `gorm:"type:varchar(3);not null"`
	BalanceAfter       int64     `gorm:"not null"`
	Narration          string    `gorm:"size:255"`
	CorrelationID      uuid.UUID `gorm:"type:uuid;not null;index"`
	// IdempotencyKey is NULL when the caller supplied none.
	IdempotencyKey *string `gorm:"size:128"`
	CreatedAt      time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}
