package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// FinanceRepository describes the read-side aggregates required by FinanceService.
type FinanceRepository interface {
	ClassFinanceRows(ctx context.Context, period models.Period) ([]models.ClassFinanceRow, error)
	OverheadRows(ctx context.Context, period models.Period) ([]models.OverheadCostRow, error)
	SumOverhead(ctx context.Context, period models.Period) (decimal.Decimal, error)
	CountDistinctStudents(ctx context.Context, period models.Period) (int, error)
	CountDistinctClasses(ctx context.Context, period models.Period) (int, error)
	ClassExists(ctx context.Context, classID string) (bool, error)
}

// FinanceService computes class profitability and period-level financial
// reports. Overhead allocation is pluggable per cost row: FLAT charges each
// class a fixed fraction of the cost, SEAT_HOURS and HEADCOUNT split the full
// amount proportionally. Proportional methods fall back to FLAT when the
// portfolio-wide denominator is zero.
type FinanceService struct {
	repo      FinanceRepository
	cache     *CacheService
	metrics   *MetricsService
	flatRatio decimal.Decimal
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewFinanceService constructs a finance service. flatRatio is the FLAT
// allocation fraction; values outside (0, 1] reset to the historical 0.1.
func NewFinanceService(repo FinanceRepository, cache *CacheService, metrics *MetricsService, flatRatio float64, cacheTTL time.Duration, logger *zap.Logger) *FinanceService {
	if flatRatio <= 0 || flatRatio > 1 {
		flatRatio = 0.1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		flatRatio: decimal.NewFromFloat(flatRatio),
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// validatePeriod rejects inverted windows. Open-ended sides are allowed.
func validatePeriod(period models.Period) error {
	if !period.From.IsZero() && !period.To.IsZero() && period.From.After(period.To) {
		return appErrors.Clone(appErrors.ErrValidation, "period start after period end")
	}
	return nil
}

// AllClassesProfit returns the profit summary for every class with recorded
// activity inside the period.
func (s *FinanceService) AllClassesProfit(ctx context.Context, period models.Period) ([]models.ClassProfitSummary, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	summaries, err := s.buildSummaries(ctx, period)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// ClassProfit returns the profit summary for one class. The allocation share
// depends on the whole portfolio, so the full breakdown is computed first.
func (s *FinanceService) ClassProfit(ctx context.Context, classID string, period models.Period) (*models.ClassProfitSummary, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	exists, err := s.repo.ClassExists(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	summaries, err := s.buildSummaries(ctx, period)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].ClassID == classID {
			return &summaries[i], nil
		}
	}
	// Class exists but has no payments, costs, or enrollments in the window.
	return &models.ClassProfitSummary{ClassID: classID}, nil
}

// PeriodReport aggregates revenue and costs over a bounded window. Results
// are cached; the boolean reports whether the payload came from cache.
func (s *FinanceService) PeriodReport(ctx context.Context, period models.Period) (*models.FinancialPeriodReport, bool, error) {
	if err := validatePeriod(period); err != nil {
		return nil, false, err
	}
	if period.From.IsZero() || period.To.IsZero() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "period report requires both bounds")
	}

	cacheKey := financeCacheKey("period", period)
	var cached models.FinancialPeriodReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	rows, err := s.repo.ClassFinanceRows(ctx, period)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate class finance")
	}
	overhead, err := s.repo.SumOverhead(ctx, period)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum overhead")
	}
	students, err := s.repo.CountDistinctStudents(ctx, period)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	classes, err := s.repo.CountDistinctClasses(ctx, period)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("finance_period_report", time.Since(start))
	}

	report := &models.FinancialPeriodReport{
		PeriodStart:  period.From,
		PeriodEnd:    period.To,
		StudentCount: students,
		ClassCount:   classes,
		OverheadCost: overhead,
	}
	revenue := decimal.Zero
	direct := decimal.Zero
	for _, row := range rows {
		revenue = revenue.Add(row.Revenue)
		direct = direct.Add(row.DirectCost)
	}
	report.TotalRevenue = revenue
	report.DirectCost = direct
	report.TotalCost = direct.Add(overhead)
	report.NetProfit = revenue.Sub(report.TotalCost)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("cache period report", zap.Error(err))
		}
	}
	return report, false, nil
}

// Reconcile cross-checks the per-class breakdown against the period totals.
func (s *FinanceService) Reconcile(ctx context.Context, period models.Period) (*models.ReconciliationReport, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	report, _, err := s.PeriodReport(ctx, period)
	if err != nil {
		return nil, err
	}
	summaries, err := s.buildSummaries(ctx, period)
	if err != nil {
		return nil, err
	}

	classRevenue := decimal.Zero
	classDirect := decimal.Zero
	for _, summary := range summaries {
		classRevenue = classRevenue.Add(summary.Revenue)
		classDirect = classDirect.Add(summary.DirectCost)
	}

	rec := &models.ReconciliationReport{
		PeriodStart:       report.PeriodStart,
		PeriodEnd:         report.PeriodEnd,
		ClassRevenueTotal: classRevenue,
		TotalRevenue:      report.TotalRevenue,
		RevenueDelta:      classRevenue.Sub(report.TotalRevenue),
		ClassDirectTotal:  classDirect,
		DirectCost:        report.DirectCost,
		DirectDelta:       classDirect.Sub(report.DirectCost),
	}
	rec.Balanced = rec.RevenueDelta.IsZero() && rec.DirectDelta.IsZero()
	if !rec.Balanced {
		s.logger.Warn("finance reconciliation drift",
			zap.String("revenue_delta", rec.RevenueDelta.String()),
			zap.String("direct_delta", rec.DirectDelta.String()))
	}
	return rec, nil
}

// InvalidateCache drops cached finance payloads after financial writes.
func (s *FinanceService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "finance:*"); err != nil {
		s.logger.Warn("invalidate finance cache", zap.Error(err))
	}
}

// buildSummaries assembles per-class profit rows and layers overhead
// allocation on top.
func (s *FinanceService) buildSummaries(ctx context.Context, period models.Period) ([]models.ClassProfitSummary, error) {
	start := time.Now()
	rows, err := s.repo.ClassFinanceRows(ctx, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate class finance")
	}
	overheadRows, err := s.repo.OverheadRows(ctx, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overhead costs")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("finance_class_profit", time.Since(start))
	}

	totalSeatHours := decimal.Zero
	totalHeadcount := decimal.Zero
	for _, row := range rows {
		totalSeatHours = totalSeatHours.Add(decimal.NewFromFloat(row.SeatHours))
		totalHeadcount = totalHeadcount.Add(decimal.NewFromInt(int64(row.EnrollmentCount)))
	}

	summaries := make([]models.ClassProfitSummary, 0, len(rows))
	for _, row := range rows {
		allocated := decimal.Zero
		fullShare := decimal.Zero
		for _, oh := range overheadRows {
			share, full := s.allocate(oh, row, totalSeatHours, totalHeadcount)
			allocated = allocated.Add(share)
			fullShare = fullShare.Add(full)
		}
		margin := row.Revenue.Sub(row.DirectCost)
		summaries = append(summaries, models.ClassProfitSummary{
			ClassID:           row.ClassID,
			CourseName:        row.CourseName,
			Revenue:           row.Revenue,
			DirectCost:        row.DirectCost,
			OverheadAllocated: allocated,
			GrossProfit:       margin.Sub(allocated),
			NetProfit:         margin.Sub(fullShare),
			EnrollmentCount:   row.EnrollmentCount,
			SessionCount:      row.SessionCount,
		})
	}
	return summaries, nil
}

// allocate returns the allocated share and the fully-borne share of one
// overhead cost for one class. FLAT allocation charges flatRatio of the cost
// but the class bears the whole amount in net terms; proportional methods
// distribute the full amount, so the two shares coincide.
func (s *FinanceService) allocate(oh models.OverheadCostRow, row models.ClassFinanceRow, totalSeatHours, totalHeadcount decimal.Decimal) (allocated, full decimal.Decimal) {
	switch oh.AllocationMethod {
	case models.AllocationSeatHours:
		if totalSeatHours.IsPositive() {
			share := oh.Amount.Mul(decimal.NewFromFloat(row.SeatHours)).Div(totalSeatHours)
			return share, share
		}
	case models.AllocationHeadcount:
		if totalHeadcount.IsPositive() {
			share := oh.Amount.Mul(decimal.NewFromInt(int64(row.EnrollmentCount))).Div(totalHeadcount)
			return share, share
		}
	}
	return oh.Amount.Mul(s.flatRatio), oh.Amount
}

func financeCacheKey(kind string, period models.Period) string {
	from := ""
	to := ""
	if !period.From.IsZero() {
		from = period.From.Format("2006-01-02")
	}
	if !period.To.IsZero() {
		to = period.To.Format("2006-01-02")
	}
	return fmt.Sprintf("finance:%s:%s:%s", kind, from, to)
}
