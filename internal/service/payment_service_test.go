package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type mockPaymentRepo struct {
	payments []models.Payment
	nextID   int
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	m.nextID++
	payment.ID = "pay-" + string(rune('0'+m.nextID))
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockPaymentRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	var result []models.Payment
	for _, p := range m.payments {
		if p.EnrollmentID == enrollmentID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPaymentRepo) SumSuccessByEnrollment(ctx context.Context, enrollmentID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range m.payments {
		if p.EnrollmentID == enrollmentID && p.Status == models.PaymentStatusSuccess {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

type mockFinanceInvalidator struct {
	calls int
}

func (m *mockFinanceInvalidator) InvalidateCache(ctx context.Context) { m.calls++ }

func newPaymentFixture() (*PaymentService, *mockPaymentRepo, *mockEnrollmentRepo, *WalletService, *mockWalletRepo, *mockFinanceInvalidator) {
	payments := &mockPaymentRepo{}
	enrollments := &mockEnrollmentRepo{enrollments: map[string]*models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1", Status: models.EnrollmentStatusActive, PaymentStatus: models.PaymentRollupUnpaid},
		"enr-2": {ID: "enr-2", StudentID: "stu-1", ClassID: "class-1", Status: models.EnrollmentStatusCancelled},
	}}
	classes := &mockClassReader{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", CourseID: "course-1", Status: models.ClassStatusInProgress},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", SessionCount: 12, TuitionFee: decimal.NewFromInt(900), MaterialFee: decimal.NewFromInt(100)},
	}}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Active: true},
	}}
	walletRepo := &mockWalletRepo{balances: make(map[string]decimal.Decimal)}
	wallet := NewWalletService(walletRepo, students, nil, nil)
	finance := &mockFinanceInvalidator{}
	svc := NewPaymentService(payments, enrollments, classes, courses, wallet, finance, nil, nil)
	return svc, payments, enrollments, wallet, walletRepo, finance
}

func TestRecordPaymentPartialRollup(t *testing.T) {
	svc, _, enrollments, _, _, finance := newPaymentFixture()

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.NewFromInt(400),
		Method:       models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, models.PaymentRollupPartial, enrollments.enrollments["enr-1"].PaymentStatus)
	assert.Equal(t, 1, finance.calls)
}

func TestRecordPaymentsReachPaidRollup(t *testing.T) {
	svc, _, enrollments, _, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.NewFromInt(400),
		Method:       models.PaymentMethodCash,
	})
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.NewFromInt(600),
		Method:       models.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRollupPaid, enrollments.enrollments["enr-1"].PaymentStatus)
}

func TestRecordPaymentCancelledEnrollment(t *testing.T) {
	svc, _, _, _, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-2",
		Amount:       decimal.NewFromInt(100),
		Method:       models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, _, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.NewFromInt(-50),
		Method:       models.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordWalletPaymentDebitsBalance(t *testing.T) {
	svc, _, _, wallet, _, _ := newPaymentFixture()

	_, err := wallet.TopUp(context.Background(), "stu-1", TopUpRequest{Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.NewFromInt(300),
		Method:       models.PaymentMethodWallet,
	})
	require.NoError(t, err)

	balance, err := wallet.Balance(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(200)))
}

func TestRecordWalletPaymentInsufficientBalance(t *testing.T) {
	svc, payments, _, _, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "enr-1",
		Amount:       decimal.NewFromInt(300),
		Method:       models.PaymentMethodWallet,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	// No payment row is written when the wallet debit fails.
	assert.Empty(t, payments.payments)
}
