package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type mockClassRepo struct {
	classes     map[string]*models.Class
	enrollments map[string]int
	nextID      int
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	var result []models.Class
	for _, class := range m.classes {
		result = append(result, *class)
	}
	return result, len(result), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := m.classes[id]; ok {
		copied := *class
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if class, ok := m.classes[id]; ok {
		return &models.ClassDetail{Class: *class, CourseName: "Course", CourseSessions: 12}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.classes == nil {
		m.classes = make(map[string]*models.Class)
	}
	m.nextID++
	class.ID = "class-" + string(rune('0'+m.nextID))
	copied := *class
	m.classes[class.ID] = &copied
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	copied := *class
	m.classes[class.ID] = &copied
	return nil
}

func (m *mockClassRepo) OverrideEndDate(ctx context.Context, id string, endDate time.Time, note string, at time.Time) error {
	class := m.classes[id]
	class.EndDate = endDate
	class.EndDateSource = models.EndDateOverridden
	class.OverrideAt = &at
	if note != "" {
		class.OverrideNote = &note
	}
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	delete(m.classes, id)
	return nil
}

func (m *mockClassRepo) CountEnrollments(ctx context.Context, classID string) (int, error) {
	return m.enrollments[classID], nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type mockCatalogReader struct{}

func (m *mockCatalogReader) FindInstructorByID(ctx context.Context, id string) (*models.Instructor, error) {
	return &models.Instructor{ID: id, Name: "Instructor"}, nil
}

func (m *mockCatalogReader) FindLocationByID(ctx context.Context, id string) (*models.Location, error) {
	return &models.Location{ID: id, Name: "Location"}, nil
}

func newClassFixture(t *testing.T) (*ClassService, *mockClassRepo) {
	t.Helper()
	repo := &mockClassRepo{classes: make(map[string]*models.Class), enrollments: make(map[string]int)}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Name: "Course", SessionCount: 12},
	}}
	catalog := &mockCatalogReader{}
	return NewClassService(repo, courses, catalog, catalog, nil, nil), repo
}

func TestClassCreateDerivesEndDate(t *testing.T) {
	svc, repo := newClassFixture(t)

	start := date(2026, time.January, 5)
	detail, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:      "course-1",
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     start,
		WeeklyPattern: "MON,WED,FRI",
		SessionHours:  1.5,
	})
	require.NoError(t, err)
	// 12 sessions at 3 per week: 4 weeks, end on day 27.
	assert.Equal(t, start.AddDate(0, 0, 27), detail.EndDate)
	assert.Equal(t, models.EndDateDerived, detail.EndDateSource)
	assert.Equal(t, models.ClassStatusNotStarted, repo.classes[detail.ID].Status)
}

func TestClassCreateUnknownCourse(t *testing.T) {
	svc, _ := newClassFixture(t)

	_, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:      "missing",
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     date(2026, time.January, 5),
		WeeklyPattern: "MON",
		SessionHours:  1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassUpdateScheduleChangeRederivesAndClearsOverride(t *testing.T) {
	svc, repo := newClassFixture(t)

	start := date(2026, time.January, 5)
	detail, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:      "course-1",
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     start,
		WeeklyPattern: "MON,WED,FRI",
		SessionHours:  1.5,
	})
	require.NoError(t, err)

	_, err = svc.OverrideEndDate(context.Background(), detail.ID, OverrideEndDateRequest{
		EndDate: start.AddDate(0, 2, 0),
		Note:    "holiday break",
	})
	require.NoError(t, err)
	require.Equal(t, models.EndDateOverridden, repo.classes[detail.ID].EndDateSource)

	newStart := date(2026, time.February, 2)
	updated, err := svc.Update(context.Background(), detail.ID, UpdateClassRequest{
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     newStart,
		WeeklyPattern: "MON,WED",
		SessionHours:  1.5,
		Status:        models.ClassStatusNotStarted,
	})
	require.NoError(t, err)
	// 12 sessions at 2 per week: 6 weeks, end on day 41.
	assert.Equal(t, newStart.AddDate(0, 0, 41), updated.EndDate)
	assert.Equal(t, models.EndDateDerived, updated.EndDateSource)
	assert.Nil(t, repo.classes[detail.ID].OverrideAt)
	assert.Nil(t, repo.classes[detail.ID].OverrideNote)
}

func TestClassUpdateKeepsOverrideWhenScheduleUnchanged(t *testing.T) {
	svc, repo := newClassFixture(t)

	start := date(2026, time.January, 5)
	detail, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:      "course-1",
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     start,
		WeeklyPattern: "MON,WED,FRI",
		SessionHours:  1.5,
	})
	require.NoError(t, err)

	override := start.AddDate(0, 2, 0)
	_, err = svc.OverrideEndDate(context.Background(), detail.ID, OverrideEndDateRequest{EndDate: override})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), detail.ID, UpdateClassRequest{
		InstructorID:  "inst-2",
		LocationID:    "loc-1",
		StartDate:     start,
		WeeklyPattern: "MON,WED,FRI",
		SessionHours:  1.5,
		Status:        models.ClassStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, override, updated.EndDate)
	assert.Equal(t, models.EndDateOverridden, updated.EndDateSource)
	assert.Equal(t, "inst-2", repo.classes[detail.ID].InstructorID)
}

func TestClassOverrideEndDateBeforeStart(t *testing.T) {
	svc, _ := newClassFixture(t)

	start := date(2026, time.January, 5)
	detail, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:      "course-1",
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     start,
		WeeklyPattern: "MON",
		SessionHours:  1,
	})
	require.NoError(t, err)

	_, err = svc.OverrideEndDate(context.Background(), detail.ID, OverrideEndDateRequest{
		EndDate: start.AddDate(0, 0, -1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassPreviewEndDate(t *testing.T) {
	svc, _ := newClassFixture(t)

	preview, err := svc.PreviewEndDate(context.Background(), PreviewEndDateRequest{
		SessionCount:  10,
		StartDate:     date(2026, time.January, 5),
		WeeklyPattern: "MON,WED,FRI",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, preview.SessionsPerWeek)
	assert.Equal(t, 4, preview.TotalWeeks)
	assert.Equal(t, date(2026, time.February, 1), preview.EndDate)
}

func TestClassDeleteRefusedWithEnrollments(t *testing.T) {
	svc, repo := newClassFixture(t)

	detail, err := svc.Create(context.Background(), CreateClassRequest{
		CourseID:      "course-1",
		InstructorID:  "inst-1",
		LocationID:    "loc-1",
		StartDate:     date(2026, time.January, 5),
		WeeklyPattern: "MON",
		SessionHours:  1,
	})
	require.NoError(t, err)
	repo.enrollments[detail.ID] = 3

	err = svc.Delete(context.Background(), detail.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
