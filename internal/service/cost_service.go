package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type costRepository interface {
	List(ctx context.Context, filter models.CostFilter) ([]models.Cost, int, error)
	FindByID(ctx context.Context, id string) (*models.Cost, error)
	Create(ctx context.Context, cost *models.Cost) error
	Delete(ctx context.Context, id string) error
}

// RecordCostRequest describes a cost payload. DIRECT costs attach to one
// class; OVERHEAD costs must stay unattached so allocation can spread them.
type RecordCostRequest struct {
	ClassID          string                  `json:"class_id"`
	CourseID         string                  `json:"course_id"`
	LocationID       string                  `json:"location_id"`
	Amount           decimal.Decimal         `json:"amount" validate:"required"`
	IncurredAt       time.Time               `json:"incurred_at" validate:"required"`
	Kind             models.CostKind         `json:"kind" validate:"required,oneof=DIRECT OVERHEAD"`
	AllocationMethod models.AllocationMethod `json:"allocation_method" validate:"omitempty,oneof=FLAT SEAT_HOURS HEADCOUNT"`
	Description      string                  `json:"description"`
}

// CostService manages expense records.
type CostService struct {
	repo      costRepository
	classes   classReader
	finance   financeInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCostService constructs CostService.
func NewCostService(repo costRepository, classes classReader, finance financeInvalidator, validate *validator.Validate, logger *zap.Logger) *CostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostService{repo: repo, classes: classes, finance: finance, validator: validate, logger: logger}
}

// List returns costs with pagination metadata.
func (s *CostService) List(ctx context.Context, filter models.CostFilter) ([]models.Cost, *models.Pagination, error) {
	costs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list costs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return costs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Record registers an expense.
func (s *CostService) Record(ctx context.Context, req RecordCostRequest) (*models.Cost, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cost payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cost amount must be positive")
	}
	switch req.Kind {
	case models.CostKindDirect:
		if req.ClassID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "direct cost requires a class")
		}
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	case models.CostKindOverhead:
		if req.ClassID != "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "overhead cost must not reference a class")
		}
	}

	cost := &models.Cost{
		Amount:           req.Amount,
		IncurredAt:       req.IncurredAt,
		Kind:             req.Kind,
		AllocationMethod: req.AllocationMethod,
		Description:      req.Description,
	}
	if req.ClassID != "" {
		cost.ClassID = &req.ClassID
	}
	if req.CourseID != "" {
		cost.CourseID = &req.CourseID
	}
	if req.LocationID != "" {
		cost.LocationID = &req.LocationID
	}
	if err := s.repo.Create(ctx, cost); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record cost")
	}
	if s.finance != nil {
		s.finance.InvalidateCache(ctx)
	}
	return cost, nil
}

// Delete removes an expense record.
func (s *CostService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "cost not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cost")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete cost")
	}
	if s.finance != nil {
		s.finance.InvalidateCache(ctx)
	}
	return nil
}
