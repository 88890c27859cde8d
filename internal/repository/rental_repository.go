package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// RentalRepository persists facility rental agreements.
type RentalRepository struct {
	db *sqlx.DB
}

// NewRentalRepository constructs the repository.
func NewRentalRepository(db *sqlx.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

const rentalColumns = `id, location_id, monthly_rent, start_date, end_date, active, created_at`

// List returns all agreements, optionally only active ones.
func (r *RentalRepository) List(ctx context.Context, activeOnly bool) ([]models.RentalAgreement, error) {
	query := fmt.Sprintf("SELECT %s FROM rental_agreements", rentalColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY start_date DESC"
	var agreements []models.RentalAgreement
	if err := r.db.SelectContext(ctx, &agreements, query); err != nil {
		return nil, fmt.Errorf("list rental agreements: %w", err)
	}
	return agreements, nil
}

// FindByID returns one agreement row.
func (r *RentalRepository) FindByID(ctx context.Context, id string) (*models.RentalAgreement, error) {
	query := fmt.Sprintf("SELECT %s FROM rental_agreements WHERE id = $1", rentalColumns)
	var agreement models.RentalAgreement
	if err := r.db.GetContext(ctx, &agreement, query, id); err != nil {
		return nil, err
	}
	return &agreement, nil
}

// ListCoveringMonth returns active agreements whose term covers the month start.
func (r *RentalRepository) ListCoveringMonth(ctx context.Context, monthStart time.Time) ([]models.RentalAgreement, error) {
	query := fmt.Sprintf(`SELECT %s FROM rental_agreements
WHERE active = TRUE AND start_date <= $1 AND (end_date IS NULL OR end_date >= $1)
ORDER BY start_date ASC`, rentalColumns)
	var agreements []models.RentalAgreement
	if err := r.db.SelectContext(ctx, &agreements, query, monthStart); err != nil {
		return nil, fmt.Errorf("list agreements for month: %w", err)
	}
	return agreements, nil
}

// Create inserts an agreement row with generated defaults.
func (r *RentalRepository) Create(ctx context.Context, agreement *models.RentalAgreement) error {
	if agreement.ID == "" {
		agreement.ID = uuid.NewString()
	}
	if agreement.CreatedAt.IsZero() {
		agreement.CreatedAt = time.Now().UTC()
	}
	agreement.Active = true
	const query = `INSERT INTO rental_agreements (id, location_id, monthly_rent, start_date, end_date, active, created_at)
VALUES (:id, :location_id, :monthly_rent, :start_date, :end_date, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, agreement); err != nil {
		return fmt.Errorf("create rental agreement: %w", err)
	}
	return nil
}

// Terminate closes an agreement at the given end date.
func (r *RentalRepository) Terminate(ctx context.Context, id string, endDate time.Time) error {
	const query = `UPDATE rental_agreements SET active = FALSE, end_date = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, endDate, id); err != nil {
		return fmt.Errorf("terminate rental agreement: %w", err)
	}
	return nil
}
