package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type mockRentalRepo struct {
	agreements map[string]*models.RentalAgreement
	nextID     int
}

func (m *mockRentalRepo) List(ctx context.Context, activeOnly bool) ([]models.RentalAgreement, error) {
	var result []models.RentalAgreement
	for _, a := range m.agreements {
		if activeOnly && !a.Active {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockRentalRepo) FindByID(ctx context.Context, id string) (*models.RentalAgreement, error) {
	if a, ok := m.agreements[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRentalRepo) ListCoveringMonth(ctx context.Context, monthStart time.Time) ([]models.RentalAgreement, error) {
	var result []models.RentalAgreement
	for _, a := range m.agreements {
		if a.StartDate.After(monthStart) {
			continue
		}
		if a.EndDate != nil && a.EndDate.Before(monthStart) {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockRentalRepo) Create(ctx context.Context, agreement *models.RentalAgreement) error {
	if m.agreements == nil {
		m.agreements = make(map[string]*models.RentalAgreement)
	}
	m.nextID++
	agreement.ID = "rent-" + string(rune('0'+m.nextID))
	agreement.Active = true
	copied := *agreement
	m.agreements[agreement.ID] = &copied
	return nil
}

func (m *mockRentalRepo) Terminate(ctx context.Context, id string, endDate time.Time) error {
	a := m.agreements[id]
	a.EndDate = &endDate
	a.Active = false
	return nil
}

type mockRentalCostWriter struct {
	costs []models.Cost
}

func (m *mockRentalCostWriter) Create(ctx context.Context, cost *models.Cost) error {
	m.costs = append(m.costs, *cost)
	return nil
}

func (m *mockRentalCostWriter) ExistsRentalCost(ctx context.Context, reference string, monthStart, monthEnd time.Time) (bool, error) {
	for _, cost := range m.costs {
		if cost.Description == reference {
			return true, nil
		}
	}
	return false, nil
}

func newRentalFixture() (*RentalService, *mockRentalRepo, *mockRentalCostWriter) {
	repo := &mockRentalRepo{agreements: make(map[string]*models.RentalAgreement)}
	costs := &mockRentalCostWriter{}
	return NewRentalService(repo, costs, &mockCatalogReader{}, &mockFinanceInvalidator{}, nil, nil), repo, costs
}

func TestRentalCreate(t *testing.T) {
	svc, _, _ := newRentalFixture()

	agreement, err := svc.Create(context.Background(), CreateRentalRequest{
		LocationID:  "loc-1",
		MonthlyRent: decimal.NewFromInt(2000),
		StartDate:   date(2026, time.January, 1),
	})
	require.NoError(t, err)
	assert.True(t, agreement.Active)
}

func TestRentalCreateRejectsNonPositiveRent(t *testing.T) {
	svc, _, _ := newRentalFixture()

	_, err := svc.Create(context.Background(), CreateRentalRequest{
		LocationID:  "loc-1",
		MonthlyRent: decimal.NewFromInt(-1),
		StartDate:   date(2026, time.January, 1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRentalMaterializeMonthIdempotent(t *testing.T) {
	svc, _, costs := newRentalFixture()

	_, err := svc.Create(context.Background(), CreateRentalRequest{
		LocationID:  "loc-1",
		MonthlyRent: decimal.NewFromInt(2000),
		StartDate:   date(2026, time.January, 1),
	})
	require.NoError(t, err)

	month := date(2026, time.February, 15)
	result, err := svc.MaterializeMonth(context.Background(), month)
	require.NoError(t, err)
	assert.Equal(t, "2026-02", result.Month)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, costs.costs, 1)
	assert.Equal(t, models.CostKindOverhead, costs.costs[0].Kind)
	assert.Equal(t, models.AllocationFlat, costs.costs[0].AllocationMethod)
	assert.Equal(t, date(2026, time.February, 1), costs.costs[0].IncurredAt)

	// Second run for the same month is a no-op.
	result, err = svc.MaterializeMonth(context.Background(), month)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, costs.costs, 1)
}

func TestRentalMaterializeSkipsTerminated(t *testing.T) {
	svc, _, costs := newRentalFixture()

	agreement, err := svc.Create(context.Background(), CreateRentalRequest{
		LocationID:  "loc-1",
		MonthlyRent: decimal.NewFromInt(2000),
		StartDate:   date(2026, time.January, 1),
	})
	require.NoError(t, err)
	_, err = svc.Terminate(context.Background(), agreement.ID, date(2026, time.January, 31))
	require.NoError(t, err)

	result, err := svc.MaterializeMonth(context.Background(), date(2026, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, costs.costs)
}

func TestRentalTerminateTwice(t *testing.T) {
	svc, _, _ := newRentalFixture()

	agreement, err := svc.Create(context.Background(), CreateRentalRequest{
		LocationID:  "loc-1",
		MonthlyRent: decimal.NewFromInt(2000),
		StartDate:   date(2026, time.January, 1),
	})
	require.NoError(t, err)

	_, err = svc.Terminate(context.Background(), agreement.ID, date(2026, time.June, 30))
	require.NoError(t, err)
	_, err = svc.Terminate(context.Background(), agreement.ID, date(2026, time.July, 31))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
