package account

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Type is the product type of an account.
type Type string

// Supported account types.
const (
	TypeSavings      Type = "SAVINGS"
	TypeCurrent      Type = "CURRENT"
	TypeSalary       Type = "SALARY"
	TypeFixedDeposit Type = "FIXED_DEPOSIT"
)

// ParseType converts a type name into a Type.
func ParseType(v string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(v)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, v)
	}
	return t, nil
}

// IsValid reports whether t is one of the declared types.
func (t Type) IsValid() bool {
	switch t {
	case TypeSavings, TypeCurrent, TypeSalary, TypeFixedDeposit:
		return true
	default:
		return false
	}
}

// AllowsOverdraft reports whether the type may carry a non-zero overdraft limit.
func (t Type) AllowsOverdraft() bool {
	return t == TypeCurrent
}

// DefaultInterestRate returns the annual interest rate, in percent, offered for the type.
func (t Type) DefaultInterestRate() decimal.Decimal {
	switch t {
	case TypeSavings:
		return decimal.RequireFromString("3.50")
	case TypeSalary:
		return decimal.RequireFromString("3.00")
	case TypeFixedDeposit:
		return decimal.RequireFromString("6.50")
	default:
		return decimal.Zero
	}
}

func (t Type) String() string {
	return string(t)
}
