package models

import "time"

// GradeKind distinguishes the two recorded exam scores.
type GradeKind string

const (
	GradeMidterm GradeKind = "MIDTERM"
	GradeFinal   GradeKind = "FINAL"
)

// Grade is one exam score for a student in a class. Scores use a 0-10 scale.
type Grade struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	Kind       GradeKind `db:"kind" json:"kind"`
	Score      float64   `db:"score" json:"score"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// ClassPassRate summarises pass/fail outcomes for one class. Only students
// holding both a midterm and a final score are counted.
type ClassPassRate struct {
	ClassID      string  `json:"class_id"`
	CourseName   string  `json:"course_name"`
	GradedCount  int     `json:"graded_count"`
	PassedCount  int     `json:"passed_count"`
	PassRate     float64 `json:"pass_rate"`
	AverageFinal float64 `json:"average_final"`
}
