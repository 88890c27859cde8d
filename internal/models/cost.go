package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostKind separates expenses attributable to one class from shared overhead.
type CostKind string

const (
	CostKindDirect   CostKind = "DIRECT"
	CostKindOverhead CostKind = "OVERHEAD"
)

// AllocationMethod selects how an overhead cost is apportioned across classes.
type AllocationMethod string

const (
	AllocationFlat      AllocationMethod = "FLAT"
	AllocationSeatHours AllocationMethod = "SEAT_HOURS"
	AllocationHeadcount AllocationMethod = "HEADCOUNT"
)

// Cost is an expense record, optionally linked to a class, course, or location.
type Cost struct {
	ID               string           `db:"id" json:"id"`
	ClassID          *string          `db:"class_id" json:"class_id,omitempty"`
	CourseID         *string          `db:"course_id" json:"course_id,omitempty"`
	LocationID       *string          `db:"location_id" json:"location_id,omitempty"`
	Amount           decimal.Decimal  `db:"amount" json:"amount"`
	IncurredAt       time.Time        `db:"incurred_at" json:"incurred_at"`
	Kind             CostKind         `db:"kind" json:"kind"`
	AllocationMethod AllocationMethod `db:"allocation_method" json:"allocation_method"`
	Description      string           `db:"description" json:"description"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// CostFilter defines filter criteria for listing costs.
type CostFilter struct {
	ClassID    string
	LocationID string
	Kind       CostKind
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
