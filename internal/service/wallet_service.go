package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type walletRepository interface {
	FindByStudent(ctx context.Context, studentID string) (*models.Wallet, error)
	ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta decimal.Decimal) error
	ListTransactions(ctx context.Context, studentID string, limit int) ([]models.WalletTransaction, error)
}

// TopUpRequest describes a wallet top-up payload.
type TopUpRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reference string          `json:"reference"`
}

// WalletService manages student prepaid balances. Balances never go negative;
// a deduction beyond the balance fails the whole operation.
type WalletService struct {
	repo      walletRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWalletService constructs WalletService.
func NewWalletService(repo walletRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *WalletService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{repo: repo, students: students, validator: validate, logger: logger}
}

// Balance returns the student's wallet, defaulting to zero when no ledger
// entry exists yet.
func (s *WalletService) Balance(ctx context.Context, studentID string) (*models.Wallet, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	wallet, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.Wallet{StudentID: studentID, Balance: decimal.Zero}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load wallet")
	}
	return wallet, nil
}

// TopUp credits the student's wallet.
func (s *WalletService) TopUp(ctx context.Context, studentID string, req TopUpRequest) (*models.Wallet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid top-up payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "top-up amount must be positive")
	}
	if _, err := s.Balance(ctx, studentID); err != nil {
		return nil, err
	}
	txn := &models.WalletTransaction{
		StudentID: studentID,
		Amount:    req.Amount,
		Type:      models.WalletTopUp,
	}
	if req.Reference != "" {
		txn.Reference = &req.Reference
	}
	if err := s.repo.ApplyTransaction(ctx, txn, req.Amount); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to top up wallet")
	}
	return s.Balance(ctx, studentID)
}

// Deduct debits the wallet, failing when the balance is insufficient.
func (s *WalletService) Deduct(ctx context.Context, studentID string, amount decimal.Decimal, reference string) error {
	if !amount.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "deduction amount must be positive")
	}
	wallet, err := s.Balance(ctx, studentID)
	if err != nil {
		return err
	}
	if wallet.Balance.LessThan(amount) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "insufficient wallet balance")
	}
	txn := &models.WalletTransaction{
		StudentID: studentID,
		Amount:    amount,
		Type:      models.WalletDeduct,
	}
	if reference != "" {
		txn.Reference = &reference
	}
	if err := s.repo.ApplyTransaction(ctx, txn, amount.Neg()); err != nil {
		// A concurrent debit can land between the balance read and the
		// conditional update; the repository reports that as no rows.
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "insufficient wallet balance")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deduct from wallet")
	}
	return nil
}

// Refund credits a previously deducted amount back to the wallet.
func (s *WalletService) Refund(ctx context.Context, studentID string, amount decimal.Decimal, reference string) error {
	if !amount.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "refund amount must be positive")
	}
	if _, err := s.Balance(ctx, studentID); err != nil {
		return err
	}
	txn := &models.WalletTransaction{
		StudentID: studentID,
		Amount:    amount,
		Type:      models.WalletRefund,
	}
	if reference != "" {
		txn.Reference = &reference
	}
	if err := s.repo.ApplyTransaction(ctx, txn, amount); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refund wallet")
	}
	return nil
}

// Transactions returns the student's recent ledger entries.
func (s *WalletService) Transactions(ctx context.Context, studentID string, limit int) ([]models.WalletTransaction, error) {
	if _, err := s.Balance(ctx, studentID); err != nil {
		return nil, err
	}
	txns, err := s.repo.ListTransactions(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list wallet transactions")
	}
	return txns, nil
}
