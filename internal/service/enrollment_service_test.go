package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type mockTx struct{}

func (m *mockTx) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseReader) FindByIDForUpdate(ctx context.Context, id string) (*models.Course, error) {
	return m.FindByID(ctx, id)
}

type mockNotificationWriter struct {
	sent []models.Notification
}

func (m *mockNotificationWriter) Create(ctx context.Context, n *models.Notification) error {
	m.sent = append(m.sent, *n)
	return nil
}

type mockAdminNotifier struct {
	pending  int
	approved int
	rejected int
	withdrew int
	grades   []bool
	courses  []string
}

func (m *mockAdminNotifier) NotifyPendingEnrollmentRequest(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle string) error {
	m.pending++
	return nil
}

func (m *mockAdminNotifier) NotifyEnrollmentApproved(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle, adminID string) error {
	m.approved++
	return nil
}

func (m *mockAdminNotifier) NotifyEnrollmentRejected(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle, adminID string) error {
	m.rejected++
	return nil
}

func (m *mockAdminNotifier) NotifyWithdrawal(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle string) error {
	m.withdrew++
	return nil
}

func (m *mockAdminNotifier) NotifyGradeRecorded(ctx context.Context, studentID, studentName, courseTitle, adminID string, isNew bool) error {
	m.grades = append(m.grades, isNew)
	return nil
}

func (m *mockAdminNotifier) NotifyCourseCreated(ctx context.Context, courseTitle, adminID string) error {
	m.courses = append(m.courses, "created:"+courseTitle)
	return nil
}

func (m *mockAdminNotifier) NotifyCourseUpdated(ctx context.Context, courseTitle, adminID string) error {
	m.courses = append(m.courses, "updated:"+courseTitle)
	return nil
}

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	activeCount int
	created     *models.Enrollment
	status      map[string]models.EnrollmentStatus
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e, StudentName: "Sara", CourseTitle: "Databases"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	return m.activeCount, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enroll"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	m.status[id] = status
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.StudentID != studentID {
			continue
		}
		if activeOnly && e.Status != models.EnrollmentStatusActive {
			continue
		}
		list = append(list, models.EnrollmentDetail{Enrollment: e})
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.CourseID != courseID {
			continue
		}
		if activeOnly && e.Status != models.EnrollmentStatusActive {
			continue
		}
		list = append(list, models.EnrollmentDetail{Enrollment: e})
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.Status == status {
			list = append(list, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return list, nil
}

func newEnrollmentFixture(repo *mockEnrollmentRepo) (*EnrollmentService, *mockNotificationWriter, *mockAdminNotifier) {
	students := &mockStudentReader{students: map[string]*models.Student{"s1": {ID: "s1", Name: "Sara"}}}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Databases", Capacity: 2}}}
	notifications := &mockNotificationWriter{}
	admins := &mockAdminNotifier{}
	svc := NewEnrollmentService(repo, students, courses, notifications, admins, &mockTx{}, validator.New(), zap.NewNop())
	return svc, notifications, admins
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc, notifications, admins := newEnrollmentFixture(repo)

	detail, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, models.EnrollmentStatusPending, repo.created.Status)

	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "Enrollment request submitted for Databases. Waiting for admin approval.", notifications.sent[0].Message)
	assert.Equal(t, models.NotificationEnrollment, notifications.sent[0].Type)
	assert.Equal(t, 1, admins.pending)
}

func TestEnrollmentServiceEnrollCourseFull(t *testing.T) {
	repo := &mockEnrollmentRepo{activeCount: 2}
	svc, _, _ := newEnrollmentFixture(repo)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive},
	}}
	svc, _, _ := newEnrollmentFixture(repo)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollAfterWithdrawalBlocked(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusWithdrawn},
	}}
	svc, _, _ := newEnrollmentFixture(repo)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc, _, _ := newEnrollmentFixture(repo)

	_, err := svc.Enroll(context.Background(), EnrollStudentRequest{StudentID: "ghost", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceWithdraw(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive},
	}}
	svc, notifications, admins := newEnrollmentFixture(repo)

	err := svc.Withdraw(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, repo.status["e1"])

	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "Successfully withdrawn from Databases", notifications.sent[0].Message)
	assert.Equal(t, 1, admins.withdrew)
}

func TestEnrollmentServiceWithdrawPendingAllowed(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusPending},
	}}
	svc, _, _ := newEnrollmentFixture(repo)

	require.NoError(t, svc.Withdraw(context.Background(), "s1", "c1"))
	assert.Equal(t, models.EnrollmentStatusWithdrawn, repo.status["e1"])
}

func TestEnrollmentServiceWithdrawTerminal(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusWithdrawn},
	}}
	svc, _, _ := newEnrollmentFixture(repo)

	err := svc.Withdraw(context.Background(), "s1", "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceApprove(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusPending},
	}}
	svc, notifications, admins := newEnrollmentFixture(repo)

	detail, err := svc.Approve(context.Background(), "e1", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, detail.Status)
	assert.Equal(t, models.EnrollmentStatusActive, repo.status["e1"])

	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "Your enrollment in Databases has been approved!", notifications.sent[0].Message)
	assert.Equal(t, 1, admins.approved)
}

func TestEnrollmentServiceReject(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusPending},
	}}
	svc, notifications, admins := newEnrollmentFixture(repo)

	_, err := svc.Reject(context.Background(), "e1", "a1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, repo.status["e1"])

	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "Your enrollment in Databases has been rejected.", notifications.sent[0].Message)
	assert.Equal(t, 1, admins.rejected)
}

func TestEnrollmentServiceUpdateStatusInvalid(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc, _, _ := newEnrollmentFixture(repo)

	_, err := svc.UpdateStatus(context.Background(), "e1", "FROZEN", "a1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, fmt.Sprintf("invalid enrollment status: %s", "FROZEN"), appErr.Message)
}

func TestEnrollmentServiceIsStudentEnrolled(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusPending},
	}}
	svc, _, _ := newEnrollmentFixture(repo)

	enrolled, err := svc.IsStudentEnrolled(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.False(t, enrolled, "PENDING does not count as enrolled")

	require.NoError(t, repo.UpdateStatus(context.Background(), "e1", models.EnrollmentStatusActive))
	enrolled, err = svc.IsStudentEnrolled(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, enrolled)
}
