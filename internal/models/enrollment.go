package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// PaymentRollupStatus summarises how much of the tuition has been settled.
type PaymentRollupStatus string

const (
	PaymentRollupUnpaid  PaymentRollupStatus = "UNPAID"
	PaymentRollupPartial PaymentRollupStatus = "PARTIAL"
	PaymentRollupPaid    PaymentRollupStatus = "PAID"
)

// Enrollment links a student to a class.
type Enrollment struct {
	ID            string              `db:"id" json:"id"`
	StudentID     string              `db:"student_id" json:"student_id"`
	ClassID       string              `db:"class_id" json:"class_id"`
	EnrolledAt    time.Time           `db:"enrolled_at" json:"enrolled_at"`
	Status        EnrollmentStatus    `db:"status" json:"status"`
	PaymentStatus PaymentRollupStatus `db:"payment_status" json:"payment_status"`
	CancelledAt   *time.Time          `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// EnrollmentDetail enriches Enrollment with student and class info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
}
