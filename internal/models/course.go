package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a catalog entry that classes are scheduled from.
type Course struct {
	ID           string          `db:"id" json:"id"`
	Code         string          `db:"code" json:"code"`
	Name         string          `db:"name" json:"name"`
	SessionCount int             `db:"session_count" json:"session_count"`
	TuitionFee   decimal.Decimal `db:"tuition_fee" json:"tuition_fee"`
	MaterialFee  decimal.Decimal `db:"material_fee" json:"material_fee"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search   string
	Page     int
	PageSize int
}
