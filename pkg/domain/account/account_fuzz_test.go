package account_test

import (
	"testing"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/google/uuid"
)

// FuzzAccountDebit checks that no sequence of debits and credits breaches the overdraft floor.
func FuzzAccountDebit(f *testing.F) {
	f.Add(int64(10000), int64(5000), int64(12000), int64(3000))
	f.Add(int64(0), int64(0), int64(1), int64(-1))
	f.Add(int64(1<<62), int64(0), int64(1<<62), int64(1<<62))
	f.Fuzz(func(t *testing.T, balance, overdraft, debit, credit int64) {
		if overdraft < 0 || balance < -overdraft {
			t.Skip()
		}
		acc, err := account.New().
			WithNumber("100000000001").
			WithUserID(uuid.New()).
			WithType(account.TypeCurrent).
			WithBalance(balance).
			WithOverdraftLimit(overdraft).
			Build()
		if err != nil {
			t.Skip()
		}
		now := time.Now()
		if m, err := money.FromMinor(credit, money.USD); err == nil {
			_ = acc.Credit(m, now)
		}
		if m, err := money.FromMinor(debit, money.USD); err == nil {
			before := acc.Balance
			if err := acc.Debit(m, now); err != nil && !acc.Balance.Equals(before) {
				t.Errorf("rejected debit changed balance from %s to %s", before, acc.Balance)
			}
		}
		if acc.Balance.Amount() < -acc.OverdraftLimit.Amount() {
			t.Errorf("balance %s below overdraft floor %s", acc.Balance, acc.OverdraftLimit)
		}
	})
}
