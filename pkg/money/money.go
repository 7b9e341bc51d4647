// Package money provides functionality for handling monetary values.
//
// Money is a value object that represents an exact amount in a specific currency.
// Invariants:
//   - Amount is always stored in the smallest currency unit (e.g., cents for USD).
//   - Currency code must be a supported ISO 4217 code.
//   - All arithmetic operations require matching currencies.
//   - Amounts are never derived from floating point values.
package money

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Amount represents a monetary amount as an integer in the
// smallest currency unit (e.g., cents for USD).
type Amount = int64

// Currency represents a monetary unit with its standard decimal places
type Currency struct {
	Code     Code // 3-letter ISO 4217 code (e.g., "USD")
	Decimals int  // Number of decimal places (0-8)
}

// IsValid checks if the currency is valid.
func (c Currency) IsValid() bool {
	return c.Code.IsValid() && c.Decimals >= 0 && c.Decimals <= 8
}

// String returns the currency code as a string
func (c Currency) String() string { return string(c.Code) }

// Money represents a monetary value in a specific currency.
type Money struct {
	amount   Amount
	currency Currency
}

// Zero returns a zero amount in the given currency.
func Zero(code Code) (Money, error) {
	return FromMinor(0, code)
}

// New creates Money from an exact decimal amount.
// Invariants enforced:
//   - Currency must be supported.
//   - Amount must not have more decimal places than allowed by the currency.
//   - Amount must fit in int64 minor units.
func New(amount decimal.Decimal, code Code) (Money, error) {
	c, err := code.ToCurrency()
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", err, code)
	}

	shifted := amount.Shift(int32(c.Decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return Money{}, fmt.Errorf(
			"%w: %s has more than %d decimal places",
			ErrInvalidAmount, amount.String(), c.Decimals,
		)
	}
	minor := shifted.BigInt()
	if !minor.IsInt64() {
		return Money{}, ErrAmountOverflow
	}

	return Money{amount: minor.Int64(), currency: c}, nil
}

// Parse creates Money from a decimal string such as "150.00".
func Parse(amount string, code Code) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, code)
}

// MustParse is like Parse but panics on error. Intended for fixtures and tests.
func MustParse(amount string, code Code) Money {
	m, err := Parse(amount, code)
	if err != nil {
		panic(fmt.Sprintf("money.MustParse(%q, %q): %v", amount, code, err))
	}
	return m
}

// FromMinor creates a new Money object from the smallest currency unit.
// It is used for hydration from storage.
func FromMinor(amount int64, code Code) (Money, error) {
	c, err := code.ToCurrency()
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", err, code)
	}
	return Money{amount: amount, currency: c}, nil
}

// Amount returns the amount of the Money object in the smallest currency unit.
func (m Money) Amount() Amount {
	return m.amount
}

// Decimal returns the amount in the main currency unit as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -int32(m.currency.Decimals))
}

// Currency returns the currency of the Money object.
func (m Money) Currency() Currency {
	return m.currency
}

// CurrencyCode returns the currency code of the Money object.
func (m Money) CurrencyCode() Code {
	return m.currency.Code
}

// IsSameCurrency checks if both values carry the same currency.
func (m Money) IsSameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Add returns a new Money object with the sum of amounts.
func (m Money) Add(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, fmt.Errorf(
			"%w: cannot add %s to %s",
			ErrCurrencyMismatch, other.currency.Code, m.currency.Code,
		)
	}
	if (other.amount > 0 && m.amount > math.MaxInt64-other.amount) ||
		(other.amount < 0 && m.amount < math.MinInt64-other.amount) {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract returns a new Money object with the difference of amounts.
// The result can be negative if the subtrahend is larger than the minuend.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, fmt.Errorf(
			"%w: cannot subtract %s from %s",
			ErrCurrencyMismatch, other.currency.Code, m.currency.Code,
		)
	}
	if other.amount == math.MinInt64 {
		return Money{}, ErrAmountOverflow
	}
	return m.Add(other.Negate())
}

// Negate negates the current Money object.
func (m Money) Negate() Money {
	return Money{amount: -m.amount, currency: m.currency}
}

// Abs returns the absolute value of the Money amount.
func (m Money) Abs() Money {
	if m.amount < 0 {
		return m.Negate()
	}
	return m
}

// Cmp compares two amounts of the same currency and returns -1, 0 or +1.
func (m Money) Cmp(other Money) (int, error) {
	if !m.IsSameCurrency(other) {
		return 0, fmt.Errorf(
			"%w: cannot compare %s and %s",
			ErrCurrencyMismatch, m.currency.Code, other.currency.Code,
		)
	}
	switch {
	case m.amount < other.amount:
		return -1, nil
	case m.amount > other.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equals reports whether both values have the same currency and amount.
func (m Money) Equals(other Money) bool {
	return m.IsSameCurrency(other) && m.amount == other.amount
}

// LessThan checks if m is strictly less than other.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

// GreaterThan checks if m is strictly greater than other.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount > 0
}

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount == 0
}

// String returns the amount with its fixed scale followed by the currency code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(int32(m.currency.Decimals)), m.currency.Code)
}

// MarshalJSON implements json.Marshaler interface.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":   m.Decimal().StringFixed(int32(m.currency.Decimals)),
		"currency": m.currency.Code,
	})
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	parsed, err := Parse(aux.Amount, Code(aux.Currency))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
