package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// CostRepository persists expense records.
type CostRepository struct {
	db *sqlx.DB
}

// NewCostRepository constructs the repository.
func NewCostRepository(db *sqlx.DB) *CostRepository {
	return &CostRepository{db: db}
}

const costColumns = `id, class_id, course_id, location_id, amount, incurred_at, kind, allocation_method, description, created_at`

// List returns costs matching the filter with a total count.
func (r *CostRepository) List(ctx context.Context, filter models.CostFilter) ([]models.Cost, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}

	where := "WHERE 1=1"
	args := []interface{}{}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		where += fmt.Sprintf(" AND class_id = $%d", len(args))
	}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		where += fmt.Sprintf(" AND location_id = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND incurred_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND incurred_at <= $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM costs %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count costs: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM costs %s ORDER BY incurred_at DESC LIMIT $%d OFFSET $%d",
		costColumns, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var costs []models.Cost
	if err := r.db.SelectContext(ctx, &costs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list costs: %w", err)
	}
	return costs, total, nil
}

// FindByID returns one cost row.
func (r *CostRepository) FindByID(ctx context.Context, id string) (*models.Cost, error) {
	query := fmt.Sprintf("SELECT %s FROM costs WHERE id = $1", costColumns)
	var cost models.Cost
	if err := r.db.GetContext(ctx, &cost, query, id); err != nil {
		return nil, err
	}
	return &cost, nil
}

// Create inserts a cost row with generated defaults.
func (r *CostRepository) Create(ctx context.Context, cost *models.Cost) error {
	if cost.ID == "" {
		cost.ID = uuid.NewString()
	}
	if cost.AllocationMethod == "" {
		cost.AllocationMethod = models.AllocationFlat
	}
	if cost.CreatedAt.IsZero() {
		cost.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO costs (id, class_id, course_id, location_id, amount, incurred_at, kind, allocation_method, description, created_at)
VALUES (:id, :class_id, :course_id, :location_id, :amount, :incurred_at, :kind, :allocation_method, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cost); err != nil {
		return fmt.Errorf("create cost: %w", err)
	}
	return nil
}

// Delete removes a cost row.
func (r *CostRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM costs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cost: %w", err)
	}
	return nil
}

// ExistsRentalCost reports whether a materialised rent row already exists for
// the agreement and month (rental materialisation idempotency check).
func (r *CostRepository) ExistsRentalCost(ctx context.Context, reference string, monthStart, monthEnd time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM costs
WHERE description = $1 AND incurred_at >= $2 AND incurred_at < $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, reference, monthStart, monthEnd); err != nil {
		return false, fmt.Errorf("check rental cost: %w", err)
	}
	return exists, nil
}
