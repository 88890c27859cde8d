package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type mockWalletRepo struct {
	balances map[string]decimal.Decimal
	ledger   []models.WalletTransaction
}

func (m *mockWalletRepo) FindByStudent(ctx context.Context, studentID string) (*models.Wallet, error) {
	balance, ok := m.balances[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Wallet{StudentID: studentID, Balance: balance}, nil
}

func (m *mockWalletRepo) ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta decimal.Decimal) error {
	if m.balances == nil {
		m.balances = make(map[string]decimal.Decimal)
	}
	if m.balances[txn.StudentID].Add(delta).IsNegative() {
		return sql.ErrNoRows
	}
	m.balances[txn.StudentID] = m.balances[txn.StudentID].Add(delta)
	m.ledger = append(m.ledger, *txn)
	return nil
}

func (m *mockWalletRepo) ListTransactions(ctx context.Context, studentID string, limit int) ([]models.WalletTransaction, error) {
	var result []models.WalletTransaction
	for _, txn := range m.ledger {
		if txn.StudentID == studentID {
			result = append(result, txn)
		}
	}
	return result, nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func newWalletFixture() (*WalletService, *mockWalletRepo) {
	repo := &mockWalletRepo{balances: make(map[string]decimal.Decimal)}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Name: "Student", Active: true},
	}}
	return NewWalletService(repo, students, nil, nil), repo
}

func TestWalletBalanceDefaultsToZero(t *testing.T) {
	svc, _ := newWalletFixture()

	wallet, err := svc.Balance(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
}

func TestWalletBalanceUnknownStudent(t *testing.T) {
	svc, _ := newWalletFixture()

	_, err := svc.Balance(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestWalletTopUpAndDeduct(t *testing.T) {
	svc, repo := newWalletFixture()

	wallet, err := svc.TopUp(context.Background(), "stu-1", TopUpRequest{Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(500)))

	require.NoError(t, svc.Deduct(context.Background(), "stu-1", decimal.NewFromInt(200), "payment:enr-1"))
	wallet, err = svc.Balance(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(300)))
	require.Len(t, repo.ledger, 2)
	assert.Equal(t, models.WalletTopUp, repo.ledger[0].Type)
	assert.Equal(t, models.WalletDeduct, repo.ledger[1].Type)
}

func TestWalletDeductInsufficientBalance(t *testing.T) {
	svc, _ := newWalletFixture()

	_, err := svc.TopUp(context.Background(), "stu-1", TopUpRequest{Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	err = svc.Deduct(context.Background(), "stu-1", decimal.NewFromInt(150), "payment:enr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// Balance unchanged after the failed deduction.
	wallet, err := svc.Balance(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)))
}

// staleWalletRepo reports a stale balance to the service-level check, the way
// a concurrent debit landing between the read and the write would.
type staleWalletRepo struct {
	mockWalletRepo
}

func (m *staleWalletRepo) FindByStudent(ctx context.Context, studentID string) (*models.Wallet, error) {
	return &models.Wallet{StudentID: studentID, Balance: decimal.NewFromInt(100)}, nil
}

func TestWalletDeductConcurrentOverdraw(t *testing.T) {
	repo := &staleWalletRepo{}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Name: "Student", Active: true},
	}}
	svc := NewWalletService(repo, students, nil, nil)

	// The stale read passes the service check; the repository guard refuses
	// the debit because the real balance is zero.
	err := svc.Deduct(context.Background(), "stu-1", decimal.NewFromInt(50), "payment:enr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.ledger)
}

func TestWalletTopUpRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newWalletFixture()

	_, err := svc.TopUp(context.Background(), "stu-1", TopUpRequest{Amount: decimal.NewFromInt(-10)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWalletRefund(t *testing.T) {
	svc, _ := newWalletFixture()

	_, err := svc.TopUp(context.Background(), "stu-1", TopUpRequest{Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.NoError(t, svc.Deduct(context.Background(), "stu-1", decimal.NewFromInt(100), "payment:enr-1"))
	require.NoError(t, svc.Refund(context.Background(), "stu-1", decimal.NewFromInt(100), "payment:enr-1"))

	wallet, err := svc.Balance(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)))
}
