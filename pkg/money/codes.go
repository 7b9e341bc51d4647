package money

// Code represents a currency code (e.g., "USD", "EUR").
type Code string

// Supported currency codes
const (
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
	GBP Code = "GBP" // British Pound
	INR Code = "INR" // Indian Rupee
	JPY Code = "JPY" // Japanese Yen
	KWD Code = "KWD" // Kuwaiti Dinar
)

// decimals holds the minor unit scale of every supported currency.
var decimals = map[Code]int{
	USD: 2,
	EUR: 2,
	GBP: 2,
	INR: 2,
	JPY: 0,
	KWD: 3,
}

// IsValid checks if the currency code is three uppercase letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}

// IsSupported reports whether the ledger knows the scale of the currency.
func (c Code) IsSupported() bool {
	_, ok := decimals[c]
	return ok
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}

// ToCurrency converts a Code to a Currency with its registered scale.
func (c Code) ToCurrency() (Currency, error) {
	if !c.IsValid() {
		return Currency{}, ErrInvalidCurrency
	}
	d, ok := decimals[c]
	if !ok {
		return Currency{}, ErrUnsupportedCurrency
	}
	return Currency{Code: c, Decimals: d}, nil
}

// DefaultCode is the currency used when none is specified.
const DefaultCode = USD
