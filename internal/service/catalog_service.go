package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type catalogRepository interface {
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
	FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error)
	CreateInstructor(ctx context.Context, instructor *models.Instructor) error
	ListLocations(ctx context.Context) ([]models.Location, error)
	FindLocationByID(ctx context.Context, id string) (*models.Location, error)
	CreateLocation(ctx context.Context, location *models.Location) error
}

// CreateInstructorRequest describes instructor registration payload.
type CreateInstructorRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// CreateLocationRequest describes location registration payload.
type CreateLocationRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// CatalogService manages instructors and locations.
type CatalogService struct {
	repo      catalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(repo catalogRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, validator: validate, logger: logger}
}

// ListInstructors returns all instructors.
func (s *CatalogService) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	instructors, err := s.repo.ListInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// GetInstructor returns one instructor.
func (s *CatalogService) GetInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindInstructorByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// CreateInstructor registers an instructor.
func (s *CatalogService) CreateInstructor(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	instructor := &models.Instructor{Name: req.Name, Email: req.Email}
	if err := s.repo.CreateInstructor(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// ListLocations returns all locations.
func (s *CatalogService) ListLocations(ctx context.Context) ([]models.Location, error) {
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	return locations, nil
}

// GetLocation returns one location.
func (s *CatalogService) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	location, err := s.repo.FindLocationByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return location, nil
}

// CreateLocation registers a location.
func (s *CatalogService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	location := &models.Location{Name: req.Name, Address: req.Address, Capacity: req.Capacity}
	if err := s.repo.CreateLocation(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}
	return location, nil
}
