package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// CatalogRepository persists instructors and locations. Both are small
// reference tables managed together.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListInstructors returns all instructors ordered by name.
func (r *CatalogRepository) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	const query = `SELECT id, name, email, created_at FROM instructors ORDER BY name ASC`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindInstructorByID returns one instructor row.
func (r *CatalogRepository) FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, name, email, created_at FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// CreateInstructor inserts an instructor row.
func (r *CatalogRepository) CreateInstructor(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO instructors (id, name, email, created_at) VALUES (:id, :name, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// ListLocations returns all locations ordered by name.
func (r *CatalogRepository) ListLocations(ctx context.Context) ([]models.Location, error) {
	const query = `SELECT id, name, address, capacity FROM locations ORDER BY name ASC`
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// FindLocationByID returns one location row.
func (r *CatalogRepository) FindLocationByID(ctx context.Context, id string) (*models.Location, error) {
	const query = `SELECT id, name, address, capacity FROM locations WHERE id = $1`
	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// CreateLocation inserts a location row.
func (r *CatalogRepository) CreateLocation(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	const query = `INSERT INTO locations (id, name, address, capacity) VALUES (:id, :name, :address, :capacity)`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}
