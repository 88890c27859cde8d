package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func TestClassFinanceRowsAggregatesHeldSessionsAndDistinctStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinanceRepository(db)

	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	pattern := `(?s)COALESCE\(se\.session_count, 0\) AS session_count` +
		`.*COUNT\(DISTINCT e2\.student_id\) AS enrollment_count` +
		`.*SELECT COUNT\(\*\) AS session_count FROM sessions s` +
		`.*s\.date >= \$5 AND s\.date <= \$6` +
		`.*WHERE rev\.revenue IS NOT NULL OR dc\.direct_cost IS NOT NULL OR COALESCE\(en\.enrollment_count, 0\) > 0`
	rows := sqlmock.NewRows([]string{"class_id", "course_name", "revenue", "direct_cost", "enrollment_count", "session_count", "seat_hours"}).
		AddRow("class-1", "English A1", "1000", "400", 5, 8, 120.0)
	mock.ExpectQuery(pattern).
		WithArgs(from, to, from, to, from, to).
		WillReturnRows(rows)

	result, err := repo.ClassFinanceRows(context.Background(), models.Period{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, 8, result[0].SessionCount)
	require.Equal(t, 5, result[0].EnrollmentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassFinanceRowsOpenPeriodSkipsBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFinanceRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "course_name", "revenue", "direct_cost", "enrollment_count", "session_count", "seat_hours"}).
		AddRow("class-1", "English A1", "1000", "0", 3, 12, 72.0)
	mock.ExpectQuery(`(?s)FROM sessions s\s+WHERE s\.class_id = c\.id\) se ON TRUE`).
		WillReturnRows(rows)

	result, err := repo.ClassFinanceRows(context.Background(), models.Period{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
