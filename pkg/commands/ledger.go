package commands

import (
	"github.com/amirasaad/ledger/pkg/money"
)

// Deposit is the input of a deposit.
type Deposit struct {
	AccountNumber  string `validate:"required,numeric,len=12"`
	Amount         string `validate:"required,amount"`
	Currency       string `validate:"required,len=3,uppercase,alpha"`
	Narration      string `validate:"max=255"`
	IdempotencyKey string `validate:"omitempty,max=64"`
}

// Money parses the amount in the command currency.
func (c Deposit) Money() (money.Money, error) {
	return money.Parse(c.Amount, money.Code(c.Currency))
}

// Withdraw is the input of a withdrawal.
type Withdraw struct {
	AccountNumber  string `validate:"required,numeric,len=12"`
	Amount         string `validate:"required,amount"`
	Currency       string `validate:"required,len=3,uppercase,alpha"`
	Narration      string `validate:"max=255"`
	IdempotencyKey string `validate:"omitempty,max=64"`
}

// Money parses the amount in the command currency.
func (c Withdraw) Money() (money.Money, error) {
	return money.Parse(c.Amount, money.Code(c.Currency))
}

// Transfer is the input of a transfer between two accounts.
type Transfer struct {
	From           string `validate:"required,numeric,len=12"`
	To             string `validate:"required,numeric,len=12,nefield=From"`
	Amount         string `validate:"required,amount"`
	Currency       string `validate:"required,len=3,uppercase,alpha"`
	Narration      string `validate:"max=255"`
	IdempotencyKey string `validate:"omitempty,max=64"`
}

// Money parses the amount in the command currency.
func (c Transfer) Money() (money.Money, error) {
	return money.Parse(c.Amount, money.Code(c.Currency))
}
