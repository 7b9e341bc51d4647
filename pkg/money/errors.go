package money

import "errors"

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed or has
	// more fractional digits than the currency allows.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAmountOverflow is returned when an amount does not fit in int64 minor units.
	ErrAmountOverflow = errors.New("amount exceeds maximum safe integer value")

	// ErrInvalidCurrency is returned for malformed currency codes.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrUnsupportedCurrency is returned for well formed but unknown currency codes.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrCurrencyMismatch is returned when performing operations on money with
	// different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)
