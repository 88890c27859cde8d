package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type rentalRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.RentalAgreement, error)
	FindByID(ctx context.Context, id string) (*models.RentalAgreement, error)
	ListCoveringMonth(ctx context.Context, monthStart time.Time) ([]models.RentalAgreement, error)
	Create(ctx context.Context, agreement *models.RentalAgreement) error
	Terminate(ctx context.Context, id string, endDate time.Time) error
}

type rentalCostWriter interface {
	Create(ctx context.Context, cost *models.Cost) error
	ExistsRentalCost(ctx context.Context, reference string, monthStart, monthEnd time.Time) (bool, error)
}

// CreateRentalRequest describes a new facility rent contract.
type CreateRentalRequest struct {
	LocationID  string          `json:"location_id" validate:"required"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" validate:"required"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     *time.Time      `json:"end_date"`
}

// MaterializeResult reports the outcome of a monthly rent run.
type MaterializeResult struct {
	Month   string `json:"month"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

// RentalService manages recurring facility rent. Each active agreement turns
// into one OVERHEAD cost row per month; the run is idempotent per agreement
// and month.
type RentalService struct {
	repo      rentalRepository
	costs     rentalCostWriter
	locations locationReader
	finance   financeInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRentalService constructs RentalService.
func NewRentalService(repo rentalRepository, costs rentalCostWriter, locations locationReader, finance financeInvalidator, validate *validator.Validate, logger *zap.Logger) *RentalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RentalService{repo: repo, costs: costs, locations: locations, finance: finance, validator: validate, logger: logger}
}

// List returns rental agreements.
func (s *RentalService) List(ctx context.Context, activeOnly bool) ([]models.RentalAgreement, error) {
	agreements, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rental agreements")
	}
	return agreements, nil
}

// Create registers a rent contract for a location.
func (s *RentalService) Create(ctx context.Context, req CreateRentalRequest) (*models.RentalAgreement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rental payload")
	}
	if !req.MonthlyRent.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "monthly rent must be positive")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date before start date")
	}
	if _, err := s.locations.FindLocationByID(ctx, req.LocationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	agreement := &models.RentalAgreement{
		LocationID:  req.LocationID,
		MonthlyRent: req.MonthlyRent,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.repo.Create(ctx, agreement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rental agreement")
	}
	return agreement, nil
}

// Terminate closes a contract at the given date.
func (s *RentalService) Terminate(ctx context.Context, id string, endDate time.Time) (*models.RentalAgreement, error) {
	agreement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rental agreement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rental agreement")
	}
	if !agreement.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "rental agreement already terminated")
	}
	if endDate.Before(agreement.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date before start date")
	}
	if err := s.repo.Terminate(ctx, id, endDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to terminate rental agreement")
	}
	return s.repo.FindByID(ctx, id)
}

// MaterializeMonth creates the month's rent cost row for every covering
// agreement. Rerunning the same month skips agreements already billed.
func (s *RentalService) MaterializeMonth(ctx context.Context, month time.Time) (*MaterializeResult, error) {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	agreements, err := s.repo.ListCoveringMonth(ctx, monthStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rental agreements")
	}

	result := &MaterializeResult{Month: monthStart.Format("2006-01")}
	for _, agreement := range agreements {
		reference := fmt.Sprintf("rent:%s:%s", agreement.ID, result.Month)
		exists, err := s.costs.ExistsRentalCost(ctx, reference, monthStart, monthEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rent cost")
		}
		if exists {
			result.Skipped++
			continue
		}
		locationID := agreement.LocationID
		cost := &models.Cost{
			LocationID:       &locationID,
			Amount:           agreement.MonthlyRent,
			IncurredAt:       monthStart,
			Kind:             models.CostKindOverhead,
			AllocationMethod: models.AllocationFlat,
			Description:      reference,
		}
		if err := s.costs.Create(ctx, cost); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rent cost")
		}
		result.Created++
	}

	if result.Created > 0 && s.finance != nil {
		s.finance.InvalidateCache(ctx)
	}
	s.logger.Info("materialised monthly rent",
		zap.String("month", result.Month),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
