package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents payment processing outcomes.
type PaymentStatus string

// Only SUCCESS payments count toward revenue.
const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentMethod enumerates supported settlement channels.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodWallet   PaymentMethod = "WALLET"
)

// Payment is a single tuition payment against an enrollment.
type Payment struct {
	ID           string          `db:"id" json:"id"`
	EnrollmentID string          `db:"enrollment_id" json:"enrollment_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	PaidAt       time.Time       `db:"paid_at" json:"paid_at"`
	Status       PaymentStatus   `db:"status" json:"status"`
	Method       PaymentMethod   `db:"method" json:"method"`
	Reference    *string         `db:"reference" json:"reference,omitempty"`
}
