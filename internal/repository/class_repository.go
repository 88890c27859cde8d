package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// ClassRepository persists scheduled classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, course_id, instructor_id, location_id, start_date, weekly_pattern,
end_date, end_date_source, override_at, override_note, session_rate, session_hours, status, created_at, updated_at`

// List returns classes matching the filter with a total count.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	where := "WHERE 1=1"
	args := []interface{}{}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		where += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM classes %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM classes %s ORDER BY start_date DESC LIMIT $%d OFFSET $%d",
		classColumns, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns one class row.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class joined with course, instructor, and location names.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.course_id, c.instructor_id, c.location_id, c.start_date, c.weekly_pattern,
c.end_date, c.end_date_source, c.override_at, c.override_note, c.session_rate, c.session_hours, c.status,
c.created_at, c.updated_at,
co.name AS course_name, co.session_count AS course_sessions,
i.name AS instructor_name, l.name AS location_name
FROM classes c
JOIN courses co ON co.id = c.course_id
JOIN instructors i ON i.id = c.instructor_id
JOIN locations l ON l.id = c.location_id
WHERE c.id = $1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a class row with generated defaults.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.Status == "" {
		class.Status = models.ClassStatusNotStarted
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, course_id, instructor_id, location_id, start_date, weekly_pattern,
end_date, end_date_source, override_at, override_note, session_rate, session_hours, status, created_at, updated_at)
VALUES (:id, :course_id, :instructor_id, :location_id, :start_date, :weekly_pattern,
:end_date, :end_date_source, :override_at, :override_note, :session_rate, :session_hours, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update persists mutable class fields, including the derived end date.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET course_id = :course_id, instructor_id = :instructor_id,
location_id = :location_id, start_date = :start_date, weekly_pattern = :weekly_pattern,
end_date = :end_date, end_date_source = :end_date_source, override_at = :override_at,
override_note = :override_note, session_rate = :session_rate, session_hours = :session_hours,
status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// OverrideEndDate writes an explicit end date, bypassing the derivation formula.
func (r *ClassRepository) OverrideEndDate(ctx context.Context, id string, endDate time.Time, note string, at time.Time) error {
	const query = `UPDATE classes SET end_date = $1, end_date_source = $2, override_at = $3, override_note = $4,
updated_at = $3 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, endDate, models.EndDateOverridden, at, note, id); err != nil {
		return fmt.Errorf("override class end date: %w", err)
	}
	return nil
}

// Delete removes a class row.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// CountEnrollments returns how many enrollments reference the class.
func (r *ClassRepository) CountEnrollments(ctx context.Context, classID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`, classID); err != nil {
		return 0, fmt.Errorf("count class enrollments: %w", err)
	}
	return count, nil
}
