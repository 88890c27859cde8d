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

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	OverrideEndDate(ctx context.Context, id string, endDate time.Time, note string, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountEnrollments(ctx context.Context, classID string) (int, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type instructorReader interface {
	FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error)
}

type locationReader interface {
	FindLocationByID(ctx context.Context, id string) (*models.Location, error)
}

// CreateClassRequest describes class creation payload.
type CreateClassRequest struct {
	CourseID      string          `json:"course_id" validate:"required"`
	InstructorID  string          `json:"instructor_id" validate:"required"`
	LocationID    string          `json:"location_id" validate:"required"`
	StartDate     time.Time       `json:"start_date" validate:"required"`
	WeeklyPattern string          `json:"weekly_pattern" validate:"required"`
	SessionRate   decimal.Decimal `json:"session_rate"`
	SessionHours  float64         `json:"session_hours" validate:"gt=0"`
}

// UpdateClassRequest describes class update payload.
type UpdateClassRequest struct {
	InstructorID  string             `json:"instructor_id" validate:"required"`
	LocationID    string             `json:"location_id" validate:"required"`
	StartDate     time.Time          `json:"start_date" validate:"required"`
	WeeklyPattern string             `json:"weekly_pattern" validate:"required"`
	SessionRate   decimal.Decimal    `json:"session_rate"`
	SessionHours  float64            `json:"session_hours" validate:"gt=0"`
	Status        models.ClassStatus `json:"status" validate:"required,oneof=NOT_STARTED IN_PROGRESS FINISHED"`
}

// OverrideEndDateRequest describes the manual end-date escape hatch.
type OverrideEndDateRequest struct {
	EndDate time.Time `json:"end_date" validate:"required"`
	Note    string    `json:"note"`
}

// PreviewEndDateRequest describes an end-date calculation probe. Either
// CourseID or SessionCount supplies the session total.
type PreviewEndDateRequest struct {
	CourseID      string    `json:"course_id"`
	SessionCount  int       `json:"session_count"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	WeeklyPattern string    `json:"weekly_pattern" validate:"required"`
}

// PreviewEndDateResponse carries the derived schedule figures.
type PreviewEndDateResponse struct {
	EndDate         time.Time `json:"end_date"`
	SessionsPerWeek int       `json:"sessions_per_week"`
	TotalWeeks      int       `json:"total_weeks"`
}

// ClassService manages scheduled classes. End dates derive from the course
// session count and the weekly pattern; every schedule-affecting write
// re-derives them unless an explicit override is in place.
type ClassService struct {
	repo        classRepository
	courses     courseReader
	instructors instructorReader
	locations   locationReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, courses courseReader, instructors instructorReader, locations locationReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, courses: courses, instructors: instructors, locations: locations, validator: validate, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one class with catalog context.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// Create schedules a class and derives its end date.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.instructors.FindInstructorByID(ctx, req.InstructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if _, err := s.locations.FindLocationByID(ctx, req.LocationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	endDate, err := ComputeEndDate(course.SessionCount, req.StartDate, req.WeeklyPattern)
	if err != nil {
		return nil, err
	}

	class := &models.Class{
		CourseID:      req.CourseID,
		InstructorID:  req.InstructorID,
		LocationID:    req.LocationID,
		StartDate:     req.StartDate,
		WeeklyPattern: req.WeeklyPattern,
		EndDate:       endDate,
		EndDateSource: models.EndDateDerived,
		SessionRate:   req.SessionRate,
		SessionHours:  req.SessionHours,
		Status:        models.ClassStatusNotStarted,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return s.Get(ctx, class.ID)
}

// Update modifies a class. Changing the start date or weekly pattern
// re-derives the end date and clears any manual override.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.instructors.FindInstructorByID(ctx, req.InstructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if _, err := s.locations.FindLocationByID(ctx, req.LocationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	scheduleChanged := !class.StartDate.Equal(req.StartDate) || class.WeeklyPattern != req.WeeklyPattern
	class.InstructorID = req.InstructorID
	class.LocationID = req.LocationID
	class.StartDate = req.StartDate
	class.WeeklyPattern = req.WeeklyPattern
	class.SessionRate = req.SessionRate
	class.SessionHours = req.SessionHours
	class.Status = req.Status

	if scheduleChanged || class.EndDateSource == models.EndDateDerived {
		course, err := s.courses.FindByID(ctx, class.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		endDate, err := ComputeEndDate(course.SessionCount, class.StartDate, class.WeeklyPattern)
		if err != nil {
			return nil, err
		}
		class.EndDate = endDate
		class.EndDateSource = models.EndDateDerived
		class.OverrideAt = nil
		class.OverrideNote = nil
	}

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return s.Get(ctx, id)
}

// OverrideEndDate records a manual end date in place of the derived one.
func (s *ClassService) OverrideEndDate(ctx context.Context, id string, req OverrideEndDateRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if req.EndDate.Before(class.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date before start date")
	}
	if err := s.repo.OverrideEndDate(ctx, id, req.EndDate, req.Note, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to override end date")
	}
	return s.Get(ctx, id)
}

// PreviewEndDate derives schedule figures without persisting anything.
func (s *ClassService) PreviewEndDate(ctx context.Context, req PreviewEndDateRequest) (*PreviewEndDateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	sessionCount := req.SessionCount
	if req.CourseID != "" {
		course, err := s.courses.FindByID(ctx, req.CourseID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		sessionCount = course.SessionCount
	}
	endDate, err := ComputeEndDate(sessionCount, req.StartDate, req.WeeklyPattern)
	if err != nil {
		return nil, err
	}
	perWeek := len(ParseWeeklyPattern(req.WeeklyPattern))
	return &PreviewEndDateResponse{
		EndDate:         endDate,
		SessionsPerWeek: perWeek,
		TotalWeeks:      (sessionCount + perWeek - 1) / perWeek,
	}, nil
}

// DerivedEndDate reports what the schedule currently derives to for an
// existing class, regardless of any stored override.
func (s *ClassService) DerivedEndDate(ctx context.Context, id string) (*PreviewEndDateResponse, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	course, err := s.courses.FindByID(ctx, class.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	endDate, err := ComputeEndDate(course.SessionCount, class.StartDate, class.WeeklyPattern)
	if err != nil {
		return nil, err
	}
	perWeek := len(ParseWeeklyPattern(class.WeeklyPattern))
	return &PreviewEndDateResponse{
		EndDate:         endDate,
		SessionsPerWeek: perWeek,
		TotalWeeks:      (course.SessionCount + perWeek - 1) / perWeek,
	}, nil
}

// Delete removes a class without enrollments.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	count, err := s.repo.CountEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class has enrollments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}
