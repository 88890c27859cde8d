package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a student's prepaid balance.
type Wallet struct {
	StudentID string          `db:"student_id" json:"student_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// WalletTransactionType enumerates ledger entry kinds.
type WalletTransactionType string

const (
	WalletTopUp  WalletTransactionType = "TOPUP"
	WalletDeduct WalletTransactionType = "DEDUCT"
	WalletRefund WalletTransactionType = "REFUND"
)

// WalletTransaction is an append-only ledger entry; the wallet balance is the
// running sum of its entries.
type WalletTransaction struct {
	ID        string                `db:"id" json:"id"`
	StudentID string                `db:"student_id" json:"student_id"`
	Amount    decimal.Decimal       `db:"amount" json:"amount"`
	Type      WalletTransactionType `db:"type" json:"type"`
	Reference *string               `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time             `db:"created_at" json:"created_at"`
}
