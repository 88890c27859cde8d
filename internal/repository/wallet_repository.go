package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// WalletRepository persists student wallets and their ledger.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository constructs the repository.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// FindByStudent returns the wallet row for one student.
func (r *WalletRepository) FindByStudent(ctx context.Context, studentID string) (*models.Wallet, error) {
	const query = `SELECT student_id, balance, updated_at FROM wallets WHERE student_id = $1`
	var wallet models.Wallet
	if err := r.db.GetContext(ctx, &wallet, query, studentID); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ApplyTransaction appends a ledger entry and moves the balance atomically.
// The delta must already carry its sign (negative for deductions). The upsert
// refuses any delta that would leave the balance negative; callers see
// sql.ErrNoRows when that happens, even under concurrent debits.
func (r *WalletRepository) ApplyTransaction(ctx context.Context, txn *models.WalletTransaction, delta decimal.Decimal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wallet transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	const upsert = `INSERT INTO wallets (student_id, balance, updated_at)
SELECT $1, $2::numeric, $3 WHERE $2::numeric >= 0
ON CONFLICT (student_id) DO UPDATE SET balance = wallets.balance + $2::numeric, updated_at = $3
WHERE wallets.balance + $2::numeric >= 0`
	res, err := tx.ExecContext(ctx, upsert, txn.StudentID, delta, now)
	if err != nil {
		return fmt.Errorf("apply wallet delta: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	const insert = `INSERT INTO wallet_transactions (id, student_id, amount, type, reference, created_at)
VALUES (:id, :student_id, :amount, :type, :reference, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, txn); err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wallet transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the ledger for one student, newest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, studentID string, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, student_id, amount, type, reference, created_at
FROM wallet_transactions WHERE student_id = $1 ORDER BY created_at DESC LIMIT $2`
	var txns []models.WalletTransaction
	if err := r.db.SelectContext(ctx, &txns, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return txns, nil
}
