package commands

import (
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/service/provisioning"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Open is the input of account provisioning.
type Open struct {
	UserID         string `validate:"required,uuid"`
	Type           string `validate:"required,oneof=SAVINGS CURRENT SALARY FIXED_DEPOSIT"`
	Currency       string `validate:"omitempty,len=3,uppercase,alpha"`
	BranchIFSC     string `validate:"omitempty,ifsc"`
	InitialDeposit string `validate:"omitempty,nonneg"`
	OverdraftLimit string `validate:"omitempty,nonneg"`
}

// Request converts a validated command into a provisioning request.
func (c Open) Request() (provisioning.OpenRequest, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return provisioning.OpenRequest{}, err
	}
	req := provisioning.OpenRequest{
		UserID:     userID,
		Type:       account.Type(c.Type),
		Currency:   money.Code(c.Currency),
		BranchIFSC: c.BranchIFSC,
	}
	if c.InitialDeposit != "" {
		if req.OpeningBalance, err = decimal.NewFromString(c.InitialDeposit); err != nil {
			return provisioning.OpenRequest{}, err
		}
	}
	if c.OverdraftLimit != "" {
		if req.OverdraftLimit, err = decimal.NewFromString(c.OverdraftLimit); err != nil {
			return provisioning.OpenRequest{}, err
		}
	}
	return req, nil
}

// Block is the input of blocking an account.
type Block struct {
	AccountNumber string `validate:"required,numeric,len=12"`
	Reason        string `validate:"required,max=255"`
}

// Unblock is the input of unblocking an account.
type Unblock struct {
	AccountNumber string `validate:"required,numeric,len=12"`
}

// Close is the input of closing an account.
type Close struct {
	AccountNumber string `validate:"required,numeric,len=12"`
	Reason        string `validate:"required,max=255"`
}
