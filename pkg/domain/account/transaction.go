package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/ledger/pkg/money"
	"github.com/google/uuid"
)

// Kind tells which ledger operation produced a transaction record.
type Kind string

// Transaction kinds. Transfers produce one DEBIT and one CREDIT leg.
const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindDebit      Kind = "DEBIT"
	KindCredit     Kind = "CREDIT"
)

// ParseKind converts a stored kind back into a Kind.
func ParseKind(v string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(v)))
	if !k.IsValid() {
		return "", fmt.Errorf("invalid transaction kind: %q", v)
	}
	return k, nil
}

// IsValid reports whether k is a declared kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindDebit, KindCredit:
		return true
	default:
		return false
	}
}

// IsOutgoing reports whether records of this kind carry a negative amount.
func (k Kind) IsOutgoing() bool {
	return k == KindWithdrawal || k == KindDebit
}

func (k Kind) String() string { return string(k) }

// Transaction is an immutable entry of the append-only transaction log.
// Amount is signed: negative for withdrawals and transfer debits.
type Transaction struct {
	ID uuid.UUID
	// Sequence is assigned by the store at commit time and orders the log.
	Sequence           int64
	AccountNumber      string
	CounterpartyNumber string
	Kind               Kind
	Amount             money.Money
	BalanceAfter       money.Money
	Narration          string
	CorrelationID      uuid.UUID
	IdempotencyKey     string
	CreatedAt          time.Time
}

// NewTransaction records a single account operation applied to a.
// The correlation id equals the record id. Call it after the balance has been changed.
func NewTransaction(a *Account, kind Kind, amount money.Money, narration string, at time.Time) *Transaction {
	id := uuid.New()
	return newTransaction(id, id, a, kind, amount, narration, at)
}

// NewTransferLegs records both legs of a transfer, sharing one correlation id.
// Call it after both balances have been changed.
func NewTransferLegs(
	from, to *Account,
	amount money.Money,
	narration string,
	at time.Time,
) (debit, credit *Transaction) {
	correlationID := uuid.New()
	debit = newTransaction(uuid.New(), correlationID, from, KindDebit, amount, narration, at)
	debit.CounterpartyNumber = to.Number
	credit = newTransaction(uuid.New(), correlationID, to, KindCredit, amount, narration, at)
	credit.CounterpartyNumber = from.Number
	return debit, credit
}

func newTransaction(
	id, correlationID uuid.UUID,
	a *Account,
	kind Kind,
	amount money.Money,
	narration string,
	at time.Time,
) *Transaction {
	signed := amount.Abs()
	if kind.IsOutgoing() {
		signed = signed.Negate()
	}
	return &Transaction{
		ID:            id,
		AccountNumber: a.Number,
		Kind:          kind,
		Amount:        signed,
		BalanceAfter:  a.Balance,
		Narration:     narration,
		CorrelationID: correlationID,
		CreatedAt:     at,
	}
}

// WithIdempotencyKey stamps the record with the caller supplied retry key.
func (t *Transaction) WithIdempotencyKey(key string) *Transaction {
	t.IdempotencyKey = key
	return t
}

// IsTransferLeg reports whether the record is one side of a transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.Kind == KindDebit || t.Kind == KindCredit
}

// Clone returns a copy of the record.
func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}
