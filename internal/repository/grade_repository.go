package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// GradeRepository persists exam scores.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert records or corrects one exam score. A student holds at most one score
// per kind per class.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.RecordedAt.IsZero() {
		grade.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, student_id, class_id, kind, score, recorded_at)
VALUES (:id, :student_id, :class_id, :kind, :score, :recorded_at)
ON CONFLICT (student_id, class_id, kind) DO UPDATE SET score = EXCLUDED.score, recorded_at = EXCLUDED.recorded_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// ListByClass returns every score recorded for one class.
func (r *GradeRepository) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, class_id, kind, score, recorded_at
FROM grades WHERE class_id = $1 ORDER BY student_id ASC, kind ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, classID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListByStudent returns every score recorded for one student.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, class_id, kind, score, recorded_at
FROM grades WHERE student_id = $1 ORDER BY recorded_at DESC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}
