// Package events defines the ledger events published after a commit.
package events

import (
	"time"

	"github.com/amirasaad/ledger/pkg/money"
	"github.com/google/uuid"
)

// EventType names an event on the bus.
type EventType string

func (t EventType) String() string { return string(t) }

// Published event types.
const (
	EventTypeAccountOpened        EventType = "AccountOpened"
	EventTypeTransactionPosted    EventType = "TransactionPosted"
	EventTypeTransferCompleted    EventType = "TransferCompleted"
	EventTypeAccountStatusChanged EventType = "AccountStatusChanged"
)

// Event is implemented by every ledger event.
type Event interface {
	Type() string
	// PartitionKey is the account number the event belongs to. Events of one
	// account keep their order on partitioned transports.
	PartitionKey() string
}

// EventTypes maps each type to a constructor, used to decode envelopes.
var EventTypes = map[EventType]func() Event{
	EventTypeAccountOpened:        func() Event { return &AccountOpened{} },
	EventTypeTransactionPosted:    func() Event { return &TransactionPosted{} },
	EventTypeTransferCompleted:    func() Event { return &TransferCompleted{} },
	EventTypeAccountStatusChanged: func() Event { return &AccountStatusChanged{} },
}

// AccountOpened is emitted once an account has been provisioned.
type AccountOpened struct {
	AccountNumber  string      `json:"account_number"`
	UserID         uuid.UUID   `json:"user_id"`
	AccountType    string      `json:"account_type"`
	OpeningBalance money.Money `json:"opening_balance"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// TransactionPosted is emitted for every committed log record.
type TransactionPosted struct {
	TransactionID      uuid.UUID   `json:"transaction_id"`
	Sequence           int64       `json:"sequence"`
	AccountNumber      string      `json:"account_number"`
	CounterpartyNumber string      `json:"counterparty_number,omitempty"`
	Kind               string      `json:"kind"`
	Amount             money.Money `json:"amount"`
	BalanceAfter       money.Money `json:"balance_after"`
	CorrelationID      uuid.UUID   `json:"correlation_id"`
	OccurredAt         time.Time   `json:"occurred_at"`
}

// TransferCompleted is emitted once both legs of a transfer are committed.
type TransferCompleted struct {
	CorrelationID uuid.UUID   `json:"correlation_id"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	Amount        money.Money `json:"amount"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// AccountStatusChanged is emitted after a lifecycle transition.
type AccountStatusChanged struct {
	AccountNumber string    `json:"account_number"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (e *AccountOpened) Type() string        { return EventTypeAccountOpened.String() }
func (e *TransactionPosted) Type() string    { return EventTypeTransactionPosted.String() }
func (e *TransferCompleted) Type() string    { return EventTypeTransferCompleted.String() }
func (e *AccountStatusChanged) Type() string { return EventTypeAccountStatusChanged.String() }

func (e *AccountOpened) PartitionKey() string        { return e.AccountNumber }
func (e *TransactionPosted) PartitionKey() string    { return e.AccountNumber }
func (e *TransferCompleted) PartitionKey() string    { return e.From }
func (e *AccountStatusChanged) PartitionKey() string { return e.AccountNumber }
