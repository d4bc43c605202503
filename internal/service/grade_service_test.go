package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type mockGradeRepo struct {
	grades  map[string]models.Grade // keyed by studentID+courseID
	byID    map[string]models.Grade
	average *float64
}

func (m *mockGradeRepo) key(studentID, courseID string) string { return studentID + "/" + courseID }

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.byID[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Grade, error) {
	if g, ok := m.grades[m.key(studentID, courseID)]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	if grade.ID == "" {
		grade.ID = "new-grade"
	}
	m.grades[m.key(grade.StudentID, grade.CourseID)] = *grade
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	if m.byID == nil {
		m.byID = make(map[string]models.Grade)
	}
	m.byID[grade.ID] = *grade
	return nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	var list []models.GradeDetail
	for _, g := range m.grades {
		if g.StudentID == studentID {
			list = append(list, models.GradeDetail{Grade: g})
		}
	}
	return list, nil
}

func (m *mockGradeRepo) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	return nil, nil
}

func (m *mockGradeRepo) AverageByStudent(ctx context.Context, studentID string) (*float64, error) {
	return m.average, nil
}

func (m *mockGradeRepo) AverageByCourse(ctx context.Context, courseID string) (*float64, error) {
	return m.average, nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func newGradeFixture(repo *mockGradeRepo) (*GradeService, *mockNotificationWriter, *mockAdminNotifier) {
	students := &mockStudentReader{students: map[string]*models.Student{"s1": {ID: "s1", Name: "Sara"}}}
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1", Title: "Databases", Capacity: 30}}}
	notifications := &mockNotificationWriter{}
	admins := &mockAdminNotifier{}
	svc := NewGradeService(repo, students, courses, notifications, admins, &mockTx{}, validator.New(), zap.NewNop())
	return svc, notifications, admins
}

func TestGradeServiceRecordGrade(t *testing.T) {
	repo := &mockGradeRepo{}
	svc, notifications, admins := newGradeFixture(repo)

	grade, err := svc.RecordGrade(context.Background(), RecordGradeRequest{
		StudentID: "s1", CourseID: "c1", Score: 95.5, ActingAdminID: "a1",
	})
	require.NoError(t, err)
	assert.Equal(t, 95.5, grade.Score)

	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "Grade updated for Databases: 95.5% (A)", notifications.sent[0].Message)
	assert.Equal(t, models.NotificationGradeUpdate, notifications.sent[0].Type)

	require.Len(t, admins.grades, 1)
	assert.True(t, admins.grades[0], "first recording is new")
}

func TestGradeServiceRecordGradeOverwrites(t *testing.T) {
	repo := &mockGradeRepo{grades: map[string]models.Grade{
		"s1/c1": {ID: "g1", StudentID: "s1", CourseID: "c1", Score: 70},
	}}
	svc, _, admins := newGradeFixture(repo)

	grade, err := svc.RecordGrade(context.Background(), RecordGradeRequest{
		StudentID: "s1", CourseID: "c1", Score: 88, ActingAdminID: "a1",
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", grade.ID, "existing row keeps its ID")
	assert.Equal(t, 88.0, repo.grades["s1/c1"].Score)

	require.Len(t, admins.grades, 1)
	assert.False(t, admins.grades[0], "second recording is an update")
}

func TestGradeServiceRecordGradeInvalidScore(t *testing.T) {
	svc, _, _ := newGradeFixture(&mockGradeRepo{})

	for _, score := range []float64{-1, 100.5} {
		_, err := svc.RecordGrade(context.Background(), RecordGradeRequest{StudentID: "s1", CourseID: "c1", Score: score})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestGradeServiceRecordGradeUnknownCourse(t *testing.T) {
	svc, _, _ := newGradeFixture(&mockGradeRepo{})

	_, err := svc.RecordGrade(context.Background(), RecordGradeRequest{StudentID: "s1", CourseID: "ghost", Score: 50})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceStudentGPA(t *testing.T) {
	avg := 84.333333
	repo := &mockGradeRepo{average: &avg}
	svc, _, _ := newGradeFixture(repo)

	gpa, err := svc.StudentGPA(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 84.33, gpa)
}

func TestGradeServiceStudentGPAWithoutGrades(t *testing.T) {
	svc, _, _ := newGradeFixture(&mockGradeRepo{})

	gpa, err := svc.StudentGPA(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, gpa)
}

func TestGradeServiceStudentGPA4Scale(t *testing.T) {
	repo := &mockGradeRepo{grades: map[string]models.Grade{
		"s1/c1": {ID: "g1", StudentID: "s1", CourseID: "c1", Score: 95}, // 4.0
		"s1/c2": {ID: "g2", StudentID: "s1", CourseID: "c2", Score: 85}, // 3.0
	}}
	svc, _, _ := newGradeFixture(repo)

	gpa, err := svc.StudentGPA4Scale(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3.5, gpa)
}

func TestGradeServiceCourseAverage(t *testing.T) {
	avg := 77.777
	svc, _, _ := newGradeFixture(&mockGradeRepo{average: &avg})

	got, err := svc.CourseAverage(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 77.78, got)
}

func TestGradeServiceDeleteGradeMissing(t *testing.T) {
	svc, _, _ := newGradeFixture(&mockGradeRepo{})

	err := svc.DeleteGrade(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
