package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var accountColumns = []string{
	"number", "user_id", "type", "currency", "balance", "holds", "overdraft_limit",
	"opening_balance", "interest_rate", "status", "status_reason", "branch_ifsc",
	"version", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func testAccount(t *testing.T, number string, balance int64) *account.Account {
	t.Helper()
	acc, err := account.New().
		WithNumber(number).
		WithUserID(uuid.New()).
		WithCurrency(money.USD).
		WithBalance(balance).
		Build()
	require.NoError(t, err)
	return acc
}

func TestUoW_TypeSafeMethods(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	// outside a transaction repositories are read-only
	accountRepo, err := uow.AccountRepository()
	require.NoError(err)
	assert.False(accountRepo.(*accountRepository).inTx)

	transactionRepo, err := uow.TransactionRepository()
	require.NoError(err)
	assert.ErrorIs(transactionRepo.Append(context.Background()), repository.ErrNoUnitOfWork)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accountRepo, err := txUow.AccountRepository()
		require.NoError(err)
		assert.True(accountRepo.(*accountRepository).inTx)

		transactionRepo, err := txUow.TransactionRepository()
		require.NoError(err)
		assert.True(transactionRepo.(*transactionRepository).inTx)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_CommitsAccountUpdateAndLogAppend(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	acc := testAccount(t, "100000000001", 1000)
	acc.Version = 3
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET .+ WHERE \(?number = \$\d+ AND version = \$\d+\)?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "transactions" (.+) VALUES (.+) RETURNING "sequence"`).
		WillReturnRows(sqlmock.NewRows([]string{"sequence"}).AddRow(41))
	mock.ExpectCommit()

	var rec *account.Transaction
	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accounts, _ := txUow.AccountRepository()
		txs, _ := txUow.TransactionRepository()
		amount := money.MustParse("5.00", money.USD)
		if err := acc.Credit(amount, now); err != nil {
			return err
		}
		if err := accounts.Update(context.Background(), acc); err != nil {
			return err
		}
		rec = account.NewTransaction(acc, account.KindDeposit, amount, "cash", now)
		return txs.Append(context.Background(), rec)
	})
	require.NoError(err)
	assert.Equal(t, int64(4), acc.Version)
	assert.Equal(t, int64(41), rec.Sequence)
	require.NoError(mock.ExpectationsWereMet())
}

func TestUoW_StaleVersionRollsBack(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	acc := testAccount(t, "100000000001", 1000)
	acc.Version = 3

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET .+ WHERE \(?number = \$\d+ AND version = \$\d+\)?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accounts, _ := txUow.AccountRepository()
		return accounts.Update(context.Background(), acc)
	})
	require.ErrorIs(err, account.ErrConflict)
	assert.Equal(t, int64(3), acc.Version)
	require.NoError(mock.ExpectationsWereMet())
}

func TestAccountRepository_GetLocksRowInsideUnitOfWork(t *testing.T) {
	require := require.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE number = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(
			"100000000001", userID.String(), "CURRENT", "USD", int64(-500), int64(0), int64(1000),
			int64(0), "0.00", "ACTIVE", "", "HDFC0001234", int64(7), now, now,
		))
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accounts, _ := txUow.AccountRepository()
		acc, err := accounts.Get(context.Background(), "100000000001")
		require.NoError(err)
		assert.Equal(t, userID, acc.UserID)
		assert.Equal(t, account.TypeCurrent, acc.Type)
		assert.Equal(t, int64(-500), acc.Balance.Amount())
		assert.Equal(t, int64(1000), acc.OverdraftLimit.Amount())
		assert.Equal(t, int64(7), acc.Version)
		assert.Equal(t, "HDFC0001234", acc.BranchIFSC)
		return nil
	})
	require.NoError(err)
	require.NoError(mock.ExpectationsWereMet())
}

func TestAccountRepository_ReadsOutsideUnitOfWork(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	userID := uuid.New()
	now := time.Now().UTC()

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE number = \$1`).
			WillReturnRows(sqlmock.NewRows(accountColumns))
		_, err := repo.Get(context.Background(), "404")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("list by user", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE user_id = \$1 ORDER BY number`).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow("100000000001", userID.String(), "SAVINGS", "USD", 100, 0, 0, 100, "3.50", "ACTIVE", "", "", 1, now, now).
				AddRow("100000000002", userID.String(), "SALARY", "INR", 0, 0, 0, 0, "3.00", "BLOCKED", "kyc", "", 2, now, now))
		accounts, err := repo.ListByUser(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, money.INR, accounts[1].Currency())
		assert.Equal(t, account.StatusBlocked, accounts[1].Status)
		assert.Equal(t, "kyc", accounts[1].StatusReason)
	})

	t.Run("writes require a unit of work", func(t *testing.T) {
		err := repo.Create(context.Background(), testAccount(t, "1", 0))
		assert.ErrorIs(t, err, repository.ErrNoUnitOfWork)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "accounts" (.+) VALUES (.+)`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accounts, _ := txUow.AccountRepository()
		return accounts.Create(context.Background(), testAccount(t, "100000000001", 0))
	})
	assert.ErrorIs(t, err, account.ErrAccountAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_Queries(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	correlationID := uuid.New()
	now := time.Now().UTC()
	columns := []string{
		"sequence", "id", "account_number", "counterparty_number", "kind", "amount", "currency",
		"balance_after", "narration", "correlation_id", "idempotency_key", "created_at",
	}

	t.Run("by correlation", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE correlation_id = \$1 ORDER BY sequence`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(1, uuid.NewString(), "100000000001", "100000000002", "DEBIT", -250, "USD", 750, "rent", correlationID.String(), "k1", now).
				AddRow(2, uuid.NewString(), "100000000002", "100000000001", "CREDIT", 250, "USD", 250, "rent", correlationID.String(), "k1", now))
		legs, err := repo.ListByCorrelation(context.Background(), correlationID)
		require.NoError(t, err)
		require.Len(t, legs, 2)
		assert.Equal(t, account.KindDebit, legs[0].Kind)
		assert.Equal(t, int64(-250), legs[0].Amount.Amount())
		assert.Equal(t, "k1", legs[1].IdempotencyKey)
	})

	t.Run("idempotency key miss", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE account_number = \$1 AND idempotency_key = \$2`).
			WillReturnRows(sqlmock.NewRows(columns))
		_, err := repo.FindByIdempotencyKey(context.Background(), "100000000001", "nope")
		assert.ErrorIs(t, err, account.ErrTransactionNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_DuplicateAppendConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	acc := testAccount(t, "100000000001", 1000)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transactions"`).WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		txs, _ := txUow.TransactionRepository()
		rec := account.NewTransaction(acc, account.KindDeposit, money.MustParse("1", money.USD), "", time.Now())
		return txs.Append(context.Background(), rec.WithIdempotencyKey("k1"))
	})
	assert.ErrorIs(t, err, account.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
