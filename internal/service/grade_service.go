package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type gradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	ListByClass(ctx context.Context, classID string) ([]models.Grade, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
}

type passRateReader interface {
	PassRateRows(ctx context.Context, classID string) ([]models.ClassPassRate, error)
	ClassExists(ctx context.Context, classID string) (bool, error)
}

// RecordGradeRequest describes one exam score.
type RecordGradeRequest struct {
	StudentID string           `json:"student_id" validate:"required"`
	ClassID   string           `json:"class_id" validate:"required"`
	Kind      models.GradeKind `json:"kind" validate:"required,oneof=MIDTERM FINAL"`
	Score     float64          `json:"score" validate:"gte=0,lte=10"`
}

// GradeService records exam scores and reports pass rates. A student passes
// when (midterm + 2*final) / 3 exceeds 5.5; students missing either score
// are excluded from the rate.
type GradeService struct {
	repo      gradeRepository
	passRates passRateReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, passRates passRateReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, passRates: passRates, validator: validate, logger: logger}
}

// Record upserts one exam score.
func (s *GradeService) Record(ctx context.Context, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade := &models.Grade{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Kind:      req.Kind,
		Score:     req.Score,
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	return grade, nil
}

// ListByClass returns every score recorded for one class.
func (s *GradeService) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListByStudent returns every score recorded for one student.
func (s *GradeService) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// PassRates reports exam outcomes, optionally scoped to one class.
func (s *GradeService) PassRates(ctx context.Context, classID string) ([]models.ClassPassRate, error) {
	if classID != "" {
		exists, err := s.passRates.ClassExists(ctx, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
	}
	rates, err := s.passRates.PassRateRows(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate pass rates")
	}
	for i := range rates {
		if rates[i].GradedCount > 0 {
			rates[i].PassRate = float64(rates[i].PassedCount) / float64(rates[i].GradedCount)
		}
	}
	return rates, nil
}
