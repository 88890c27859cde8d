package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
	SumSuccessByEnrollment(ctx context.Context, enrollmentID string) (decimal.Decimal, error)
}

type enrollmentWriter interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentRollupStatus) error
}

type walletDeductor interface {
	Deduct(ctx context.Context, studentID string, amount decimal.Decimal, reference string) error
}

type financeInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// RecordPaymentRequest describes a payment payload.
type RecordPaymentRequest struct {
	EnrollmentID string               `json:"enrollment_id" validate:"required"`
	Amount       decimal.Decimal      `json:"amount" validate:"required"`
	Method       models.PaymentMethod `json:"method" validate:"required,oneof=CASH TRANSFER WALLET"`
	Reference    string               `json:"reference"`
}

// PaymentService records tuition payments and keeps the per-enrollment
// settlement rollup current. WALLET payments debit the student's prepaid
// balance before the payment row is written.
type PaymentService struct {
	repo        paymentRepository
	enrollments enrollmentWriter
	classes     classReader
	courses     courseReader
	wallet      walletDeductor
	finance     financeInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService constructs PaymentService. wallet and finance are
// optional; nil disables wallet settlement and cache invalidation.
func NewPaymentService(repo paymentRepository, enrollments enrollmentWriter, classes classReader, courses courseReader, wallet walletDeductor, finance financeInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:        repo,
		enrollments: enrollments,
		classes:     classes,
		courses:     courses,
		wallet:      wallet,
		finance:     finance,
		validator:   validate,
		logger:      logger,
	}
}

// Record writes a successful payment and refreshes the enrollment rollup.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be positive")
	}
	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment cancelled")
	}

	if req.Method == models.PaymentMethodWallet {
		if s.wallet == nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "wallet payments disabled")
		}
		reference := fmt.Sprintf("payment:%s", req.EnrollmentID)
		if err := s.wallet.Deduct(ctx, enrollment.StudentID, req.Amount, reference); err != nil {
			return nil, err
		}
	}

	payment := &models.Payment{
		EnrollmentID: req.EnrollmentID,
		Amount:       req.Amount,
		Status:       models.PaymentStatusSuccess,
		Method:       req.Method,
	}
	if req.Reference != "" {
		payment.Reference = &req.Reference
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if err := s.refreshRollup(ctx, enrollment); err != nil {
		s.logger.Warn("refresh payment rollup", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
	}
	if s.finance != nil {
		s.finance.InvalidateCache(ctx)
	}
	return payment, nil
}

// ListByEnrollment returns the payment history for one enrollment.
func (s *PaymentService) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	payments, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// refreshRollup recomputes the settlement status against the course tuition.
func (s *PaymentService) refreshRollup(ctx context.Context, enrollment *models.Enrollment) error {
	total, err := s.repo.SumSuccessByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return err
	}
	class, err := s.classes.FindByID(ctx, enrollment.ClassID)
	if err != nil {
		return err
	}
	course, err := s.courses.FindByID(ctx, class.CourseID)
	if err != nil {
		return err
	}

	due := course.TuitionFee.Add(course.MaterialFee)
	status := models.PaymentRollupPartial
	switch {
	case total.IsZero():
		status = models.PaymentRollupUnpaid
	case due.IsPositive() && total.GreaterThanOrEqual(due):
		status = models.PaymentRollupPaid
	}
	return s.enrollments.UpdatePaymentStatus(ctx, enrollment.ID, status)
}
