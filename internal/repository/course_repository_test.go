package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "session_count", "tuition_fee", "material_fee", "created_at", "updated_at"}).
		AddRow("course-1", "ENG-A1", "English A1", 12, "900", "100", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, code, name, session_count, tuition_fee, material_fee, created_at, updated_at
FROM courses WHERE id = $1`)).
		WithArgs("course-1").
		WillReturnRows(rows)

	course, err := repo.FindByID(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, "ENG-A1", course.Code)
	require.Equal(t, 12, course.SessionCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE name ILIKE $1 OR code ILIKE $1")).
		WithArgs("%eng%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "code", "name", "session_count", "tuition_fee", "material_fee", "created_at", "updated_at"}).
		AddRow("course-1", "ENG-A1", "English A1", 12, "900", "100", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, code, name, session_count, tuition_fee, material_fee, created_at, updated_at").
		WithArgs("%eng%", 20, 0).
		WillReturnRows(rows)

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Search: "eng", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, courses, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM courses WHERE code = $1 AND id <> $2)")).
		WithArgs("ENG-A1", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByCode(context.Background(), "ENG-A1", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
