package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type sessionRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	CountByClass(ctx context.Context, classID string) (int, error)
	CreateBatch(ctx context.Context, sessions []models.Session) error
	Update(ctx context.Context, session *models.Session) error
	UpsertAttendance(ctx context.Context, att *models.SessionAttendance) error
	ListAttendance(ctx context.Context, sessionID string) ([]models.SessionAttendance, error)
	ClassAttendanceRate(ctx context.Context, classID string) (*models.ClassAttendanceRate, error)
}

type classDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

// UpdateSessionRequest describes per-session overrides.
type UpdateSessionRequest struct {
	Date                   time.Time `json:"date" validate:"required"`
	SubstituteInstructorID string    `json:"substitute_instructor_id"`
	LocationOverrideID     string    `json:"location_override_id"`
	Note                   string    `json:"note"`
}

// RecordAttendanceRequest describes one attendance mark.
type RecordAttendanceRequest struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT EXCUSED"`
}

// SessionService materialises class calendars and tracks attendance.
type SessionService struct {
	repo      sessionRepository
	classes   classDetailReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(repo sessionRepository, classes classDetailReader, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// Generate materialises the session calendar for a class by walking its
// weekly pattern from the start date. Generation runs once per class.
func (s *SessionService) Generate(ctx context.Context, classID string) ([]models.Session, error) {
	detail, err := s.classes.FindDetailByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	count, err := s.repo.CountByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "sessions already generated for class")
	}

	dates, err := EnumerateSessionDates(detail.CourseSessions, detail.StartDate, detail.WeeklyPattern)
	if err != nil {
		return nil, err
	}
	sessions := make([]models.Session, 0, len(dates))
	for _, date := range dates {
		sessions = append(sessions, models.Session{ClassID: classID, Date: date})
	}
	if err := s.repo.CreateBatch(ctx, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sessions")
	}
	return sessions, nil
}

// ListByClass returns the session calendar of a class.
func (s *SessionService) ListByClass(ctx context.Context, classID string) ([]models.Session, error) {
	if _, err := s.classes.FindDetailByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	sessions, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Update reschedules a session or records a substitute or room change.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	session.Date = req.Date
	session.SubstituteInstructorID = nilIfEmpty(req.SubstituteInstructorID)
	session.LocationOverrideID = nilIfEmpty(req.LocationOverrideID)
	session.Note = nilIfEmpty(req.Note)
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// RecordAttendance upserts one attendance mark for a session.
func (s *SessionService) RecordAttendance(ctx context.Context, sessionID string, req RecordAttendanceRequest) (*models.SessionAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.repo.FindByID(ctx, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	att := &models.SessionAttendance{
		SessionID: sessionID,
		StudentID: req.StudentID,
		Status:    req.Status,
	}
	if err := s.repo.UpsertAttendance(ctx, att); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return att, nil
}

// Attendance lists the marks recorded for one session.
func (s *SessionService) Attendance(ctx context.Context, sessionID string) ([]models.SessionAttendance, error) {
	if _, err := s.repo.FindByID(ctx, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	marks, err := s.repo.ListAttendance(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return marks, nil
}

// ClassAttendanceRate aggregates attendance outcomes across a class.
func (s *SessionService) ClassAttendanceRate(ctx context.Context, classID string) (*models.ClassAttendanceRate, error) {
	if _, err := s.classes.FindDetailByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	rate, err := s.repo.ClassAttendanceRate(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	total := rate.PresentCount + rate.AbsentCount + rate.ExcusedCount
	if total > 0 {
		rate.Rate = float64(rate.PresentCount) / float64(total)
	}
	return rate, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
