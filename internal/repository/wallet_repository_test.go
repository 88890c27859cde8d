package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func TestWalletRepositoryFindByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWalletRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "balance", "updated_at"}).
		AddRow("stu-1", "250.00", time.Now())
	mock.ExpectQuery("SELECT student_id, balance, updated_at FROM wallets").
		WithArgs("stu-1").
		WillReturnRows(rows)

	wallet, err := repo.FindByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.True(t, wallet.Balance.Equal(decimal.NewFromInt(250)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepositoryApplyTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWalletRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO wallet_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reference := "topup"
	txn := &models.WalletTransaction{
		StudentID: "stu-1",
		Amount:    decimal.NewFromInt(100),
		Type:      models.WalletTopUp,
		Reference: &reference,
	}
	err := repo.ApplyTransaction(context.Background(), txn, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotEmpty(t, txn.ID)
	require.False(t, txn.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepositoryApplyTransactionRefusesNegativeBalance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWalletRepository(db)

	// The conditional upsert touches no rows when the debit would overdraw.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	txn := &models.WalletTransaction{StudentID: "stu-1", Amount: decimal.NewFromInt(150), Type: models.WalletDeduct}
	err := repo.ApplyTransaction(context.Background(), txn, decimal.NewFromInt(-150))
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepositoryApplyTransactionRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWalletRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO wallet_transactions").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	txn := &models.WalletTransaction{StudentID: "stu-1", Amount: decimal.NewFromInt(100), Type: models.WalletTopUp}
	err := repo.ApplyTransaction(context.Background(), txn, decimal.NewFromInt(100))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
