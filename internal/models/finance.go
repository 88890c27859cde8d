package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period bounds a reporting window. A zero From or To leaves that side open;
// net-profit-by-class historically runs over all time.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ClassProfitSummary reports revenue and cost figures for one class.
//
// GrossProfit subtracts the *allocated* share of overhead costs; NetProfit
// subtracts every cost touching the class in full. The two deliberately
// diverge whenever overhead exists.
type ClassProfitSummary struct {
	ClassID           string          `json:"class_id"`
	CourseName        string          `json:"course_name"`
	Revenue           decimal.Decimal `json:"revenue"`
	DirectCost        decimal.Decimal `json:"direct_cost"`
	OverheadAllocated decimal.Decimal `json:"overhead_allocated"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	EnrollmentCount   int             `json:"enrollment_count"`
	SessionCount      int             `json:"session_count"`
}

// FinancialPeriodReport collapses per-class figures into a single totals row.
type FinancialPeriodReport struct {
	PeriodStart  time.Time       `json:"period_start"`
	PeriodEnd    time.Time       `json:"period_end"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	DirectCost   decimal.Decimal `json:"direct_cost"`
	OverheadCost decimal.Decimal `json:"overhead_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	StudentCount int             `json:"student_count"`
	ClassCount   int             `json:"class_count"`
}

// ReconciliationReport cross-checks the per-class breakdown against the
// period totals. The two are computed from the same tables through different
// queries, so a nonzero delta signals drift in the aggregation logic or data.
type ReconciliationReport struct {
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	ClassRevenueTotal decimal.Decimal `json:"class_revenue_total"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	RevenueDelta      decimal.Decimal `json:"revenue_delta"`
	ClassDirectTotal  decimal.Decimal `json:"class_direct_total"`
	DirectCost        decimal.Decimal `json:"direct_cost"`
	DirectDelta       decimal.Decimal `json:"direct_delta"`
	Balanced          bool            `json:"balanced"`
}

// ClassFinanceRow is the repository-level aggregate for one class; the
// service layers allocation on top of it.
type ClassFinanceRow struct {
	ClassID         string          `db:"class_id"`
	CourseName      string          `db:"course_name"`
	Revenue         decimal.Decimal `db:"revenue"`
	DirectCost      decimal.Decimal `db:"direct_cost"`
	EnrollmentCount int             `db:"enrollment_count"`
	SessionCount    int             `db:"session_count"`
	SeatHours       float64         `db:"seat_hours"`
}

// OverheadCostRow is one shared cost line pending allocation.
type OverheadCostRow struct {
	CostID           string           `db:"cost_id"`
	Amount           decimal.Decimal  `db:"amount"`
	AllocationMethod AllocationMethod `db:"allocation_method"`
	IncurredAt       time.Time        `db:"incurred_at"`
}
