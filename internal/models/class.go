package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassStatus represents the lifecycle of a class.
type ClassStatus string

// Possible class statuses.
const (
	ClassStatusNotStarted ClassStatus = "NOT_STARTED"
	ClassStatusInProgress ClassStatus = "IN_PROGRESS"
	ClassStatusFinished   ClassStatus = "FINISHED"
)

// EndDateSource distinguishes formula-derived end dates from manual overrides.
type EndDateSource string

const (
	EndDateDerived    EndDateSource = "DERIVED"
	EndDateOverridden EndDateSource = "OVERRIDDEN"
)

// Class is a scheduled offering of a Course with a weekly meeting pattern.
// EndDate is derived from the course session count, the start date, and the
// pattern, unless explicitly overridden (EndDateSource tells which).
type Class struct {
	ID            string          `db:"id" json:"id"`
	CourseID      string          `db:"course_id" json:"course_id"`
	InstructorID  string          `db:"instructor_id" json:"instructor_id"`
	LocationID    string          `db:"location_id" json:"location_id"`
	StartDate     time.Time       `db:"start_date" json:"start_date"`
	WeeklyPattern string          `db:"weekly_pattern" json:"weekly_pattern"`
	EndDate       time.Time       `db:"end_date" json:"end_date"`
	EndDateSource EndDateSource   `db:"end_date_source" json:"end_date_source"`
	OverrideAt    *time.Time      `db:"override_at" json:"override_at,omitempty"`
	OverrideNote  *string         `db:"override_note" json:"override_note,omitempty"`
	SessionRate   decimal.Decimal `db:"session_rate" json:"session_rate"`
	SessionHours  float64         `db:"session_hours" json:"session_hours"`
	Status        ClassStatus     `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ClassDetail enriches Class with catalog and roster context.
type ClassDetail struct {
	Class
	CourseName     string `db:"course_name" json:"course_name"`
	CourseSessions int    `db:"course_sessions" json:"course_sessions"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	LocationName   string `db:"location_name" json:"location_name"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	CourseID string
	Status   ClassStatus
	Page     int
	PageSize int
}
