package account

import (
	"errors"

	"github.com/amirasaad/ledger/pkg/money"
)

var (
	// ErrInvalidAmount is returned when a transaction amount is not strictly positive.
	ErrInvalidAmount = errors.New("transaction amount must be positive")

	// ErrCurrencyMismatch is returned when the amount currency differs from the account currency.
	ErrCurrencyMismatch = money.ErrCurrencyMismatch

	// ErrAccountNotActive is returned when a ledger operation targets a blocked or closed account.
	ErrAccountNotActive = errors.New("account not active")

	// ErrInsufficientFunds is returned when a debit would take the balance below the overdraft floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidTransfer is returned when a transfer is attempted from an account to itself.
	ErrInvalidTransfer = errors.New("cannot transfer to same account")

	// ErrNonZeroBalanceOnClose is returned when closing an account that still holds funds.
	ErrNonZeroBalanceOnClose = errors.New("account balance must be zero to close")

	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists is returned when provisioning a duplicate account number.
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrOperationTimeout is returned when the account lock could not be acquired in time.
	ErrOperationTimeout = errors.New("operation timed out waiting for account lock")

	// ErrConflict is returned when a concurrent modification is detected at commit time.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrInvalidStatusTransition is returned for transitions the status machine does not allow.
	ErrInvalidStatusTransition = errors.New("invalid account status transition")

	// ErrInvalidStatus is returned when parsing an unknown status value.
	ErrInvalidStatus = errors.New("invalid account status")

	// ErrInvalidType is returned when parsing an unknown account type.
	ErrInvalidType = errors.New("invalid account type")

	// ErrReasonRequired is returned when blocking or closing without a reason.
	ErrReasonRequired = errors.New("reason is required")

	// ErrOverdraftNotAllowed is returned when an overdraft limit is set on a non CURRENT account.
	ErrOverdraftNotAllowed = errors.New("overdraft is only available on current accounts")

	// ErrTransactionNotFound is returned when a transaction record cannot be found.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrLedgerMismatch is returned when replaying the log does not reproduce the stored balance.
	ErrLedgerMismatch = errors.New("ledger replay does not match account balance")
)

// IsRetryable reports whether the caller may retry the failed operation with the same input.
// Every other failure is deterministic.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOperationTimeout)
}
