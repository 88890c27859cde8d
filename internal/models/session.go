package models

import "time"

// Session is one concrete meeting occurrence of a class on a calendar date.
type Session struct {
	ID                     string    `db:"id" json:"id"`
	ClassID                string    `db:"class_id" json:"class_id"`
	Date                   time.Time `db:"date" json:"date"`
	SubstituteInstructorID *string   `db:"substitute_instructor_id" json:"substitute_instructor_id,omitempty"`
	LocationOverrideID     *string   `db:"location_override_id" json:"location_override_id,omitempty"`
	Note                   *string   `db:"note" json:"note,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// AttendanceStatus enumerates attendance outcomes per session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// SessionAttendance records one student's attendance for one session.
type SessionAttendance struct {
	SessionID  string           `db:"session_id" json:"session_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	RecordedAt time.Time        `db:"recorded_at" json:"recorded_at"`
}

// ClassAttendanceRate aggregates attendance for one class.
type ClassAttendanceRate struct {
	ClassID      string  `db:"class_id" json:"class_id"`
	PresentCount int     `db:"present_count" json:"present_count"`
	AbsentCount  int     `db:"absent_count" json:"absent_count"`
	ExcusedCount int     `db:"excused_count" json:"excused_count"`
	Rate         float64 `db:"rate" json:"rate"`
}
