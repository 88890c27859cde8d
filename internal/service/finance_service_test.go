package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type mockFinanceRepo struct {
	rows     []models.ClassFinanceRow
	overhead []models.OverheadCostRow
	students int
	existing map[string]bool
}

func (m *mockFinanceRepo) ClassFinanceRows(ctx context.Context, period models.Period) ([]models.ClassFinanceRow, error) {
	return m.rows, nil
}

func (m *mockFinanceRepo) OverheadRows(ctx context.Context, period models.Period) ([]models.OverheadCostRow, error) {
	return m.overhead, nil
}

func (m *mockFinanceRepo) SumOverhead(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, oh := range m.overhead {
		total = total.Add(oh.Amount)
	}
	return total, nil
}

func (m *mockFinanceRepo) CountDistinctStudents(ctx context.Context, period models.Period) (int, error) {
	return m.students, nil
}

func (m *mockFinanceRepo) CountDistinctClasses(ctx context.Context, period models.Period) (int, error) {
	return len(m.rows), nil
}

func (m *mockFinanceRepo) ClassExists(ctx context.Context, classID string) (bool, error) {
	return m.existing[classID], nil
}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func boundedPeriod() models.Period {
	return models.Period{
		From: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestAllClassesProfitNoData(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{}, nil, nil, 0.1, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestAllClassesProfitRejectsInvertedPeriod(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{}, nil, nil, 0.1, time.Minute, nil)

	period := boundedPeriod()
	period.From, period.To = period.To, period.From
	_, err := svc.AllClassesProfit(context.Background(), period)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProfitWithoutOverheadGrossEqualsNet(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(1000), DirectCost: money(400), EnrollmentCount: 10},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].GrossProfit.Equal(money(600)))
	assert.True(t, summaries[0].NetProfit.Equal(money(600)))
	assert.True(t, summaries[0].OverheadAllocated.IsZero())
}

func TestProfitFlatAllocation(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(1000), DirectCost: money(400), EnrollmentCount: 10},
		},
		overhead: []models.OverheadCostRow{
			{CostID: "oh1", Amount: money(200), AllocationMethod: models.AllocationFlat},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	// Flat allocation charges 10% in gross terms but the class bears the full
	// amount in net terms.
	assert.True(t, summaries[0].OverheadAllocated.Equal(money(20)))
	assert.True(t, summaries[0].GrossProfit.Equal(money(580)))
	assert.True(t, summaries[0].NetProfit.Equal(money(400)))
}

func TestProfitSeatHoursAllocation(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(1000), DirectCost: money(0), SeatHours: 300},
			{ClassID: "c2", Revenue: money(1000), DirectCost: money(0), SeatHours: 100},
		},
		overhead: []models.OverheadCostRow{
			{CostID: "oh1", Amount: money(400), AllocationMethod: models.AllocationSeatHours},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].OverheadAllocated.Equal(money(300)))
	assert.True(t, summaries[1].OverheadAllocated.Equal(money(100)))
	// Proportional methods distribute the full amount, so gross equals net.
	assert.True(t, summaries[0].GrossProfit.Equal(summaries[0].NetProfit))
	assert.True(t, summaries[1].GrossProfit.Equal(summaries[1].NetProfit))
}

func TestProfitHeadcountAllocation(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(500), EnrollmentCount: 6},
			{ClassID: "c2", Revenue: money(500), EnrollmentCount: 2},
		},
		overhead: []models.OverheadCostRow{
			{CostID: "oh1", Amount: money(80), AllocationMethod: models.AllocationHeadcount},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].OverheadAllocated.Equal(money(60)))
	assert.True(t, summaries[1].OverheadAllocated.Equal(money(20)))
}

func TestProfitZeroDenominatorFallsBackToFlat(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(1000), SeatHours: 0, EnrollmentCount: 0},
		},
		overhead: []models.OverheadCostRow{
			{CostID: "oh1", Amount: money(100), AllocationMethod: models.AllocationSeatHours},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].OverheadAllocated.Equal(money(10)))
	assert.True(t, summaries[0].NetProfit.Equal(money(900)))
}

func TestClassProfitUnknownClass(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{existing: map[string]bool{}}, nil, nil, 0.1, time.Minute, nil)

	_, err := svc.ClassProfit(context.Background(), "missing", models.Period{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassProfitNoActivityReturnsZeroSummary(t *testing.T) {
	repo := &mockFinanceRepo{existing: map[string]bool{"c9": true}}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	summary, err := svc.ClassProfit(context.Background(), "c9", models.Period{})
	require.NoError(t, err)
	assert.Equal(t, "c9", summary.ClassID)
	assert.True(t, summary.Revenue.IsZero())
	assert.True(t, summary.NetProfit.IsZero())
}

func TestPeriodReportRequiresBothBounds(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{}, nil, nil, 0.1, time.Minute, nil)

	_, _, err := svc.PeriodReport(context.Background(), models.Period{From: time.Now()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodReportTotals(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(1200), DirectCost: money(300)},
			{ClassID: "c2", Revenue: money(800), DirectCost: money(200)},
		},
		overhead: []models.OverheadCostRow{
			{CostID: "oh1", Amount: money(500), AllocationMethod: models.AllocationFlat},
		},
		students: 15,
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	report, fromCache, err := svc.PeriodReport(context.Background(), boundedPeriod())
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.True(t, report.TotalRevenue.Equal(money(2000)))
	assert.True(t, report.DirectCost.Equal(money(500)))
	assert.True(t, report.OverheadCost.Equal(money(500)))
	assert.True(t, report.TotalCost.Equal(money(1000)))
	assert.True(t, report.NetProfit.Equal(money(1000)))
	assert.Equal(t, 15, report.StudentCount)
	assert.Equal(t, 2, report.ClassCount)
}

func TestReconcileBalanced(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(1200), DirectCost: money(300)},
			{ClassID: "c2", Revenue: money(800), DirectCost: money(200)},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 0.1, time.Minute, nil)

	rec, err := svc.Reconcile(context.Background(), boundedPeriod())
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.True(t, rec.RevenueDelta.IsZero())
	assert.True(t, rec.DirectDelta.IsZero())
	assert.True(t, rec.ClassRevenueTotal.Equal(money(2000)))
}

func TestNewFinanceServiceResetsBadRatio(t *testing.T) {
	repo := &mockFinanceRepo{
		rows: []models.ClassFinanceRow{
			{ClassID: "c1", Revenue: money(100)},
		},
		overhead: []models.OverheadCostRow{
			{CostID: "oh1", Amount: money(100), AllocationMethod: models.AllocationFlat},
		},
	}
	svc := NewFinanceService(repo, nil, nil, 2.5, time.Minute, nil)

	summaries, err := svc.AllClassesProfit(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].OverheadAllocated.Equal(money(10)))
}
