package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentalAgreement is a recurring facility rent contract. Each active agreement
// is materialised into one OVERHEAD cost row per month.
type RentalAgreement struct {
	ID          string          `db:"id" json:"id"`
	LocationID  string          `db:"location_id" json:"location_id"`
	MonthlyRent decimal.Decimal `db:"monthly_rent" json:"monthly_rent"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	EndDate     *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
