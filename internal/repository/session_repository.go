package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// SessionRepository persists class sessions and attendance.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// ListByClass returns every session of a class in date order.
func (r *SessionRepository) ListByClass(ctx context.Context, classID string) ([]models.Session, error) {
	const query = `SELECT id, class_id, date, substitute_instructor_id, location_override_id, note, created_at
FROM sessions WHERE class_id = $1 ORDER BY date ASC`
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, classID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID returns one session row.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, class_id, date, substitute_instructor_id, location_override_id, note, created_at
FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CountByClass returns how many sessions exist for the class.
func (r *SessionRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sessions WHERE class_id = $1`, classID); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// CreateBatch inserts the generated session calendar inside one transaction.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []models.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session batch: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO sessions (id, class_id, date, substitute_instructor_id, location_override_id, note, created_at)
VALUES (:id, :class_id, :date, :substitute_instructor_id, :location_override_id, :note, :created_at)`
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		if sessions[i].CreatedAt.IsZero() {
			sessions[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, sessions[i]); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session batch: %w", err)
	}
	return nil
}

// Update persists per-session overrides.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	const query = `UPDATE sessions SET date = :date, substitute_instructor_id = :substitute_instructor_id,
location_override_id = :location_override_id, note = :note WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// UpsertAttendance records or corrects one attendance mark.
func (r *SessionRepository) UpsertAttendance(ctx context.Context, att *models.SessionAttendance) error {
	if att.RecordedAt.IsZero() {
		att.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO session_attendance (session_id, student_id, status, recorded_at)
VALUES (:session_id, :student_id, :status, :recorded_at)
ON CONFLICT (session_id, student_id) DO UPDATE SET status = EXCLUDED.status, recorded_at = EXCLUDED.recorded_at`
	if _, err := r.db.NamedExecContext(ctx, query, att); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListAttendance returns all marks for one session.
func (r *SessionRepository) ListAttendance(ctx context.Context, sessionID string) ([]models.SessionAttendance, error) {
	const query = `SELECT session_id, student_id, status, recorded_at
FROM session_attendance WHERE session_id = $1 ORDER BY student_id ASC`
	var marks []models.SessionAttendance
	if err := r.db.SelectContext(ctx, &marks, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return marks, nil
}

// ClassAttendanceRate aggregates attendance marks for all sessions of a class.
func (r *SessionRepository) ClassAttendanceRate(ctx context.Context, classID string) (*models.ClassAttendanceRate, error) {
	const query = `SELECT $1::text AS class_id,
COALESCE(SUM(CASE WHEN a.status = 'PRESENT' THEN 1 ELSE 0 END), 0) AS present_count,
COALESCE(SUM(CASE WHEN a.status = 'ABSENT' THEN 1 ELSE 0 END), 0) AS absent_count,
COALESCE(SUM(CASE WHEN a.status = 'EXCUSED' THEN 1 ELSE 0 END), 0) AS excused_count,
0::float8 AS rate
FROM session_attendance a
JOIN sessions s ON s.id = a.session_id
WHERE s.class_id = $1`
	var rate models.ClassAttendanceRate
	if err := r.db.GetContext(ctx, &rate, query, classID); err != nil {
		return nil, fmt.Errorf("aggregate attendance: %w", err)
	}
	return &rate, nil
}
