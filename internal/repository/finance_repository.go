package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// FinanceRepository runs the read-side aggregates behind profitability
// reporting. All money sums come back as decimals; overhead allocation happens
// in the service layer on top of these rows.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository constructs the repository.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// periodClause appends optional period bounds for the given column. A zero
// bound leaves that side of the window open.
func periodClause(where string, args []interface{}, column string, period models.Period) (string, []interface{}) {
	if !period.From.IsZero() {
		args = append(args, period.From)
		where += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if !period.To.IsZero() {
		args = append(args, period.To)
		where += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return where, args
}

const classFinanceSelect = `SELECT c.id AS class_id,
co.name AS course_name,
COALESCE(rev.revenue, 0) AS revenue,
COALESCE(dc.direct_cost, 0) AS direct_cost,
COALESCE(en.enrollment_count, 0) AS enrollment_count,
COALESCE(se.session_count, 0) AS session_count,
COALESCE(en.enrollment_count, 0) * co.session_count * c.session_hours AS seat_hours
FROM classes c
JOIN courses co ON co.id = c.course_id`

// ClassFinanceRows returns the per-class aggregate for every class with at
// least one enrollment, payment, or cost record. Revenue counts only
// successful payments inside the period; direct cost counts DIRECT costs
// attached to the class inside the period; session_count counts held
// sessions inside the period. Seat hours stay on the planned course total
// so allocation weights do not collapse for classes yet to meet.
func (r *FinanceRepository) ClassFinanceRows(ctx context.Context, period models.Period) ([]models.ClassFinanceRow, error) {
	query, args := r.classFinanceQuery(period)
	var rows []models.ClassFinanceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate class finance: %w", err)
	}
	return rows, nil
}

// classFinanceQuery assembles the join query. Period bounds are pushed into
// the lateral subqueries so open-ended windows skip the predicate.
func (r *FinanceRepository) classFinanceQuery(period models.Period) (string, []interface{}) {
	args := []interface{}{}

	payWhere := "WHERE e.class_id = c.id AND p.status = 'SUCCESS'"
	payWhere, args = periodClause(payWhere, args, "p.paid_at", period)
	revenue := fmt.Sprintf(`LEFT JOIN LATERAL (
SELECT SUM(p.amount) AS revenue FROM payments p
JOIN enrollments e ON e.id = p.enrollment_id
%s) rev ON TRUE`, payWhere)

	costWhere := "WHERE x.class_id = c.id AND x.kind = 'DIRECT'"
	costWhere, args = periodClause(costWhere, args, "x.incurred_at", period)
	direct := fmt.Sprintf(`LEFT JOIN LATERAL (
SELECT SUM(x.amount) AS direct_cost FROM costs x
%s) dc ON TRUE`, costWhere)

	enrolled := `LEFT JOIN LATERAL (
SELECT COUNT(DISTINCT e2.student_id) AS enrollment_count FROM enrollments e2
WHERE e2.class_id = c.id AND e2.status IN ('ACTIVE', 'COMPLETED')) en ON TRUE`

	sessWhere := "WHERE s.class_id = c.id"
	sessWhere, args = periodClause(sessWhere, args, "s.date", period)
	sessions := fmt.Sprintf(`LEFT JOIN LATERAL (
SELECT COUNT(*) AS session_count FROM sessions s
%s) se ON TRUE`, sessWhere)

	query := fmt.Sprintf("%s\n%s\n%s\n%s\n%s", classFinanceSelect, revenue, direct, enrolled, sessions)
	query += "\nWHERE rev.revenue IS NOT NULL OR dc.direct_cost IS NOT NULL OR COALESCE(en.enrollment_count, 0) > 0"
	query += "\nORDER BY co.name ASC, c.id ASC"
	return query, args
}

// OverheadRows lists unattached overhead costs inside the period, pending
// allocation across classes.
func (r *FinanceRepository) OverheadRows(ctx context.Context, period models.Period) ([]models.OverheadCostRow, error) {
	where := "WHERE kind = 'OVERHEAD' AND class_id IS NULL"
	args := []interface{}{}
	where, args = periodClause(where, args, "incurred_at", period)

	query := fmt.Sprintf(`SELECT id AS cost_id, amount, allocation_method, incurred_at
FROM costs %s ORDER BY incurred_at ASC`, where)
	var rows []models.OverheadCostRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list overhead costs: %w", err)
	}
	return rows, nil
}

// SumOverhead totals unattached overhead costs inside the period.
func (r *FinanceRepository) SumOverhead(ctx context.Context, period models.Period) (decimal.Decimal, error) {
	where := "WHERE kind = 'OVERHEAD' AND class_id IS NULL"
	args := []interface{}{}
	where, args = periodClause(where, args, "incurred_at", period)

	var total decimal.Decimal
	query := fmt.Sprintf("SELECT COALESCE(SUM(amount), 0) FROM costs %s", where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, fmt.Errorf("sum overhead costs: %w", err)
	}
	return total, nil
}

// CountDistinctStudents counts students with at least one successful payment
// inside the period.
func (r *FinanceRepository) CountDistinctStudents(ctx context.Context, period models.Period) (int, error) {
	where := "WHERE p.status = 'SUCCESS'"
	args := []interface{}{}
	where, args = periodClause(where, args, "p.paid_at", period)

	query := fmt.Sprintf(`SELECT COUNT(DISTINCT e.student_id) FROM payments p
JOIN enrollments e ON e.id = p.enrollment_id %s`, where)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count distinct students: %w", err)
	}
	return count, nil
}

// CountDistinctClasses counts classes with at least one successful payment
// inside the period.
func (r *FinanceRepository) CountDistinctClasses(ctx context.Context, period models.Period) (int, error) {
	where := "WHERE p.status = 'SUCCESS'"
	args := []interface{}{}
	where, args = periodClause(where, args, "p.paid_at", period)

	query := fmt.Sprintf(`SELECT COUNT(DISTINCT e.class_id) FROM payments p
JOIN enrollments e ON e.id = p.enrollment_id %s`, where)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count distinct classes: %w", err)
	}
	return count, nil
}

// ClassExists reports whether a class row exists.
func (r *FinanceRepository) ClassExists(ctx context.Context, classID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1)`, classID); err != nil {
		return false, fmt.Errorf("check class exists: %w", err)
	}
	return exists, nil
}

// PassRateRows aggregates exam outcomes per class. Only students holding both
// scores are graded; a student passes when (midterm + 2*final) / 3 > 5.5.
func (r *FinanceRepository) PassRateRows(ctx context.Context, classID string) ([]models.ClassPassRate, error) {
	where := ""
	args := []interface{}{}
	if classID != "" {
		args = append(args, classID)
		where = fmt.Sprintf("WHERE g.class_id = $%d", len(args))
	}

	query := fmt.Sprintf(`SELECT g.class_id, co.name AS course_name,
COUNT(*) AS graded_count,
SUM(CASE WHEN (g.midterm + 2 * g.final) / 3 > 5.5 THEN 1 ELSE 0 END) AS passed_count,
0::float8 AS pass_rate,
COALESCE(AVG(g.final), 0) AS average_final
FROM (
SELECT class_id, student_id,
MAX(CASE WHEN kind = 'MIDTERM' THEN score END) AS midterm,
MAX(CASE WHEN kind = 'FINAL' THEN score END) AS final
FROM grades GROUP BY class_id, student_id
HAVING MAX(CASE WHEN kind = 'MIDTERM' THEN score END) IS NOT NULL
AND MAX(CASE WHEN kind = 'FINAL' THEN score END) IS NOT NULL
) g
JOIN classes c ON c.id = g.class_id
JOIN courses co ON co.id = c.course_id
%s
GROUP BY g.class_id, co.name
ORDER BY co.name ASC`, where)

	var rows []models.ClassPassRate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate pass rates: %w", err)
	}
	return rows, nil
}
