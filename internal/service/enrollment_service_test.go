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

type mockEnrollmentRepo struct {
	enrollments map[string]*models.Enrollment
	nextID      int
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var result []models.EnrollmentDetail
	for _, e := range m.enrollments {
		result = append(result, models.EnrollmentDetail{Enrollment: *e})
	}
	return result, len(result), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, classID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.ClassID == classID && e.Status == models.EnrollmentStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]*models.Enrollment)
	}
	m.nextID++
	enrollment.ID = "enr-" + string(rune('0'+m.nextID))
	copied := *enrollment
	m.enrollments[enrollment.ID] = &copied
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, cancelledAt *time.Time) error {
	e := m.enrollments[id]
	e.Status = status
	e.CancelledAt = cancelledAt
	return nil
}

func (m *mockEnrollmentRepo) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentRollupStatus) error {
	m.enrollments[id].PaymentStatus = status
	return nil
}

type mockClassReader struct {
	classes map[string]*models.Class
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := m.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockStudentReader, *mockClassReader) {
	repo := &mockEnrollmentRepo{enrollments: make(map[string]*models.Enrollment)}
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", Name: "Student", Active: true},
		"stu-2": {ID: "stu-2", Name: "Inactive", Active: false},
	}}
	classes := &mockClassReader{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", Status: models.ClassStatusNotStarted},
		"class-2": {ID: "class-2", Status: models.ClassStatusFinished},
	}}
	return NewEnrollmentService(repo, students, classes, nil, nil), repo, students, classes
}

func TestEnrollCreatesActiveUnpaid(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, models.PaymentRollupUnpaid, enrollment.PaymentStatus)
	assert.False(t, enrollment.EnrolledAt.IsZero())
}

func TestEnrollInactiveStudent(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-2", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollFinishedClass(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollDuplicateActive(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollAgainAfterCancel(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	first, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)
}

func TestCancelNonActiveEnrollment(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), enrollment.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), enrollment.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
