package repository

import (
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/money"
)

func mapAccountToModel(a *account.Account) Account {
	return Account{
		Number:         a.Number,
		UserID:         a.UserID,
		Type:           a.Type.String(),
		Currency:       a.Currency().String(),
		Balance:        a.Balance.Amount(),
		Holds:          a.Holds.Amount(),
		OverdraftLimit: a.OverdraftLimit.Amount(),
		OpeningBalance: a.OpeningBalance.Amount(),
		InterestRate:   a.InterestRate,
		Status:         a.Status.String(),
		StatusReason:   a.StatusReason,
		BranchIFSC:     a.BranchIFSC,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func mapModelToAccount(m *Account) (*account.Account, error) {
	status, err := account.ParseStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", m.Number, err)
	}
	typ, err := account.ParseType(m.Type)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", m.Number, err)
	}
	return account.New().
		WithNumber(m.Number).
		WithUserID(m.UserID).
		WithType(typ).
		WithCurrency(money.Code(m.Currency)).
		WithBalance(m.Balance).
		WithHolds(m.Holds).
		WithOverdraftLimit(m.OverdraftLimit).
		WithOpeningBalance(m.OpeningBalance).
		WithInterestRate(m.InterestRate).
		WithStatus(status, m.StatusReason).
		WithBranch(m.BranchIFSC).
		WithVersion(m.Version).
		WithCreatedAt(m.CreatedAt).
		WithUpdatedAt(m.UpdatedAt).
		Build()
}

func mapTransactionToModel(t *account.Transaction) Transaction {
	var key *string
	if t.IdempotencyKey != "" {
		k := t.IdempotencyKey
		key = &k
	}
	return Transaction{
		Sequence:           t.Sequence,
		ID:                 t.ID,
		AccountNumber:      t.AccountNumber,
		CounterpartyNumber: t.CounterpartyNumber,
		Kind:               t.Kind.String(),
		Amount:             t.Amount.Amount(),
		Currency:           t.Amount.CurrencyCode().String(),
		BalanceAfter:       t.BalanceAfter.Amount(),
		Narration:          t.Narration,
		CorrelationID:      t.CorrelationID,
		IdempotencyKey:     key,
		CreatedAt:          t.CreatedAt,
	}
}

func mapModelToTransaction(m *Transaction) (*account.Transaction, error) {
	kind, err := account.ParseKind(m.Kind)
	if err != nil {
		return nil, err
	}
	code := money.Code(m.Currency)
	amount, err := money.FromMinor(m.Amount, code)
	if err != nil {
		return nil, err
	}
	balance, err := money.FromMinor(m.BalanceAfter, code)
	if err != nil {
		return nil, err
	}
	t := &account.Transaction{
		ID:                 m.ID,
		Sequence:           m.Sequence,
		AccountNumber:      m.AccountNumber,
		CounterpartyNumber: m.CounterpartyNumber,
		Kind:               kind,
		Amount:             amount,
		BalanceAfter:       balance,
		Narration:          m.Narration,
		CorrelationID:      m.CorrelationID,
		CreatedAt:          m.CreatedAt,
	}
	if m.IdempotencyKey != nil {
		t.IdempotencyKey = *m.IdempotencyKey
	}
	return t, nil
}

func mapModelsToTransactions(models []Transaction) ([]*account.Transaction, error) {
	out := make([]*account.Transaction, 0, len(models))
	for i := range models {
		t, err := mapModelToTransaction(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
