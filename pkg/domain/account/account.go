package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/ledger/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a customer's ledger account, identified by its account number.
// It acts as an aggregate root: balance and status only change through its methods.
//
// Invariants:
//   - Number and UserID are set and never change.
//   - Balance, Holds, OverdraftLimit and OpeningBalance share one currency.
//   - AvailableBalance = Balance - Holds.
//   - Balance >= -OverdraftLimit at all times.
//   - OverdraftLimit is zero unless the account type is CURRENT.
//   - Status moves ACTIVE <-> BLOCKED, ACTIVE|BLOCKED -> CLOSED, and never leaves CLOSED.
type Account struct {
	Number         string
	UserID         uuid.UUID
	Type           Type
	Balance        money.Money
	Holds          money.Money
	OverdraftLimit money.Money
	InterestRate   decimal.Decimal
	Status         Status
	StatusReason   string
	BranchIFSC     string
	OpeningBalance money.Money
	// Version is the compare-and-swap counter maintained by the store.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
// It is used by provisioning, by stores hydrating records and by tests.
type Builder struct {
	number       string
	userID       uuid.UUID
	accountType  Type
	currency     money.Code
	balance      int64
	holds        int64
	overdraft    int64
	opening      *int64
	interestRate *decimal.Decimal
	status       Status
	statusReason string
	branch       string
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// New creates a new Builder with sensible defaults: an ACTIVE savings account in the default currency.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		accountType: TypeSavings,
		currency:    money.DefaultCode,
		status:      StatusActive,
		createdAt:   now,
		updatedAt:   now,
	}
}

// WithNumber sets the account number. This is a mandatory field.
func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

// WithUserID sets the owning user. This is a mandatory field.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

// WithType sets the account type.
func (b *Builder) WithType(t Type) *Builder {
	b.accountType = t
	return b
}

// WithCurrency sets the account currency.
func (b *Builder) WithCurrency(code money.Code) *Builder {
	b.currency = code
	return b
}

// WithBalance sets the balance in minor units.
func (b *Builder) WithBalance(minor int64) *Builder {
	b.balance = minor
	return b
}

// WithOpeningBalance sets the balance at provisioning time in minor units.
// When not set it defaults to the balance.
func (b *Builder) WithOpeningBalance(minor int64) *Builder {
	b.opening = &minor
	return b
}

// WithHolds sets the sum of holds in minor units.
func (b *Builder) WithHolds(minor int64) *Builder {
	b.holds = minor
	return b
}

// WithOverdraftLimit sets the overdraft limit in minor units.
func (b *Builder) WithOverdraftLimit(minor int64) *Builder {
	b.overdraft = minor
	return b
}

// WithInterestRate overrides the default interest rate of the account type.
func (b *Builder) WithInterestRate(rate decimal.Decimal) *Builder {
	b.interestRate = &rate
	return b
}

// WithStatus sets the lifecycle status, used when hydrating stored accounts.
func (b *Builder) WithStatus(s Status, reason string) *Builder {
	b.status = s
	b.statusReason = reason
	return b
}

// WithBranch sets the IFSC code of the home branch.
func (b *Builder) WithBranch(ifsc string) *Builder {
	b.branch = ifsc
	return b
}

// WithVersion sets the store version.
func (b *Builder) WithVersion(v int64) *Builder {
	b.version = v
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates every invariant and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if strings.TrimSpace(b.number) == "" {
		return nil, errors.New("account number is required")
	}
	if b.userID == uuid.Nil {
		return nil, errors.New("userID is required")
	}
	if !b.accountType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, b.accountType)
	}
	if !b.status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, b.status)
	}
	if b.overdraft < 0 {
		return nil, errors.New("overdraft limit cannot be negative")
	}
	if b.overdraft > 0 && !b.accountType.AllowsOverdraft() {
		return nil, ErrOverdraftNotAllowed
	}
	if b.holds < 0 {
		return nil, errors.New("holds cannot be negative")
	}
	if b.balance < -b.overdraft {
		return nil, fmt.Errorf("%w: balance below overdraft limit", ErrInsufficientFunds)
	}

	balance, err := money.FromMinor(b.balance, b.currency)
	if err != nil {
		return nil, err
	}
	// currency is validated above, the remaining conversions cannot fail
	holds, _ := money.FromMinor(b.holds, b.currency)
	overdraft, _ := money.FromMinor(b.overdraft, b.currency)
	opening := balance
	if b.opening != nil {
		opening, _ = money.FromMinor(*b.opening, b.currency)
	}
	rate := b.accountType.DefaultInterestRate()
	if b.interestRate != nil {
		rate = *b.interestRate
	}

	return &Account{
		Number:         b.number,
		UserID:         b.userID,
		Type:           b.accountType,
		Balance:        balance,
		Holds:          holds,
		OverdraftLimit: overdraft,
		InterestRate:   rate,
		Status:         b.status,
		StatusReason:   b.statusReason,
		BranchIFSC:     b.branch,
		OpeningBalance: opening,
		Version:        b.version,
		CreatedAt:      b.createdAt,
		UpdatedAt:      b.updatedAt,
	}, nil
}

// Currency returns the account currency.
func (a *Account) Currency() money.Code {
	return a.Balance.CurrencyCode()
}

// AvailableBalance returns the balance minus the sum of holds.
func (a *Account) AvailableBalance() money.Money {
	available, err := a.Balance.Subtract(a.Holds)
	if err != nil {
		// holds always share the balance currency
		return a.Balance
	}
	return available
}

// IsActive reports whether the account accepts ledger operations.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Clone returns a deep copy, used by stores to hand out isolated snapshots.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

func (a *Account) validateAmount(amount money.Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !a.Balance.IsSameCurrency(amount) {
		return fmt.Errorf(
			"%w: amount in %s, account %s in %s",
			ErrCurrencyMismatch, amount.CurrencyCode(), a.Number, a.Currency(),
		)
	}
	return nil
}

func (a *Account) validateActive() error {
	switch a.Status {
	case StatusActive:
		return nil
	case StatusBlocked, StatusClosed:
		return fmt.Errorf("%w: %s is %s", ErrAccountNotActive, a.Number, a.Status)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStatus, a.Status)
	}
}

// ValidateCredit checks every invariant of a credit without changing the account.
// Invariants enforced:
//   - Amount must be positive.
//   - Amount currency must match account currency.
//   - Account must be ACTIVE.
func (a *Account) ValidateCredit(amount money.Money) error {
	if err := a.validateAmount(amount); err != nil {
		return err
	}
	if err := a.validateActive(); err != nil {
		return err
	}
	if _, err := a.Balance.Add(amount); err != nil {
		return err
	}
	return nil
}

// ValidateDebit checks every invariant of a debit without changing the account.
// On top of the credit rules the available balance after the debit must not
// go below the negated overdraft limit.
func (a *Account) ValidateDebit(amount money.Money) error {
	if err := a.validateAmount(amount); err != nil {
		return err
	}
	if err := a.validateActive(); err != nil {
		return err
	}
	after, err := a.AvailableBalance().Subtract(amount)
	if err != nil {
		return err
	}
	below, err := after.LessThan(a.OverdraftLimit.Negate())
	if err != nil {
		return err
	}
	if below {
		return fmt.Errorf(
			"%w: %s available %s, requested %s",
			ErrInsufficientFunds, a.Number, a.AvailableBalance(), amount,
		)
	}
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount money.Money, at time.Time) error {
	if err := a.ValidateCredit(amount); err != nil {
		return err
	}
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	a.UpdatedAt = at
	return nil
}

// Debit removes amount from the balance.
func (a *Account) Debit(amount money.Money, at time.Time) error {
	if err := a.ValidateDebit(amount); err != nil {
		return err
	}
	balance, err := a.Balance.Subtract(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	a.UpdatedAt = at
	return nil
}

// Block freezes an ACTIVE account.
func (a *Account) Block(reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if err := a.Status.transitionTo(StatusBlocked); err != nil {
		return err
	}
	a.Status = StatusBlocked
	a.StatusReason = reason
	a.UpdatedAt = at
	return nil
}

// Unblock returns a BLOCKED account to ACTIVE.
func (a *Account) Unblock(at time.Time) error {
	if err := a.Status.transitionTo(StatusActive); err != nil {
		return err
	}
	a.Status = StatusActive
	a.StatusReason = ""
	a.UpdatedAt = at
	return nil
}

// Close moves the account to the terminal CLOSED status. The balance must be zero.
func (a *Account) Close(reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if err := a.Status.transitionTo(StatusClosed); err != nil {
		return err
	}
	if !a.Balance.IsZero() {
		return fmt.Errorf("%w: %s holds %s", ErrNonZeroBalanceOnClose, a.Number, a.Balance)
	}
	a.Status = StatusClosed
	a.StatusReason = reason
	a.UpdatedAt = at
	return nil
}
