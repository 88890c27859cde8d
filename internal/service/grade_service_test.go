package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type mockGradeRepo struct {
	grades map[string]models.Grade
}

func gradeKey(g *models.Grade) string {
	return g.StudentID + "|" + g.ClassID + "|" + string(g.Kind)
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	m.grades[gradeKey(grade)] = *grade
	return nil
}

func (m *mockGradeRepo) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	var result []models.Grade
	for _, g := range m.grades {
		if g.ClassID == classID {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	var result []models.Grade
	for _, g := range m.grades {
		if g.StudentID == studentID {
			result = append(result, g)
		}
	}
	return result, nil
}

type mockPassRateReader struct {
	rows     []models.ClassPassRate
	existing map[string]bool
}

func (m *mockPassRateReader) PassRateRows(ctx context.Context, classID string) ([]models.ClassPassRate, error) {
	if classID == "" {
		return m.rows, nil
	}
	var result []models.ClassPassRate
	for _, row := range m.rows {
		if row.ClassID == classID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockPassRateReader) ClassExists(ctx context.Context, classID string) (bool, error) {
	return m.existing[classID], nil
}

func TestGradeRecordUpsertsByKind(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := NewGradeService(repo, &mockPassRateReader{}, nil, nil)

	_, err := svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "stu-1", ClassID: "class-1", Kind: models.GradeMidterm, Score: 6,
	})
	require.NoError(t, err)
	// Re-recording the same exam replaces the score rather than adding a row.
	_, err = svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "stu-1", ClassID: "class-1", Kind: models.GradeMidterm, Score: 8,
	})
	require.NoError(t, err)

	grades, err := svc.ListByClass(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 8.0, grades[0].Score)
}

func TestGradeRecordRejectsOutOfRangeScore(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockPassRateReader{}, nil, nil)

	_, err := svc.Record(context.Background(), RecordGradeRequest{
		StudentID: "stu-1", ClassID: "class-1", Kind: models.GradeFinal, Score: 11,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPassRatesComputesRatio(t *testing.T) {
	reader := &mockPassRateReader{
		rows: []models.ClassPassRate{
			{ClassID: "class-1", GradedCount: 8, PassedCount: 6},
			{ClassID: "class-2", GradedCount: 0, PassedCount: 0},
		},
		existing: map[string]bool{"class-1": true},
	}
	svc := NewGradeService(&mockGradeRepo{}, reader, nil, nil)

	rates, err := svc.PassRates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.InDelta(t, 0.75, rates[0].PassRate, 1e-9)
	assert.Zero(t, rates[1].PassRate)
}

func TestPassRatesUnknownClass(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockPassRateReader{existing: map[string]bool{}}, nil, nil)

	_, err := svc.PassRates(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
