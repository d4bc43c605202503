package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type mockReportEnrollmentSource struct {
	stats []models.CourseEnrollmentStat
	total int
	byStu []models.EnrollmentDetail
	calls int
}

func (m *mockReportEnrollmentSource) CourseSeatStats(ctx context.Context) ([]models.CourseEnrollmentStat, error) {
	m.calls++
	return m.stats, nil
}

func (m *mockReportEnrollmentSource) Count(ctx context.Context) (int, error) { return m.total, nil }

func (m *mockReportEnrollmentSource) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	return m.byStu, nil
}

type mockReportGradeSource struct {
	stats   []models.CourseGradeStat
	total   int
	byStu   []models.GradeDetail
	average *float64
}

func (m *mockReportGradeSource) CourseGradeStats(ctx context.Context) ([]models.CourseGradeStat, error) {
	return m.stats, nil
}

func (m *mockReportGradeSource) Count(ctx context.Context) (int, error) { return m.total, nil }

func (m *mockReportGradeSource) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	return m.byStu, nil
}

func (m *mockReportGradeSource) AverageByStudent(ctx context.Context, studentID string) (*float64, error) {
	return m.average, nil
}

type mockReportStudentSource struct {
	store *mockStudentStore
	total int
}

func (m *mockReportStudentSource) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return m.store.FindByID(ctx, id)
}

func (m *mockReportStudentSource) Count(ctx context.Context) (int, error) { return m.total, nil }

type mockReportCourseSource struct{ total int }

func (m *mockReportCourseSource) Count(ctx context.Context) (int, error) { return m.total, nil }

// memoryCache is a map-backed cacheStore for exercising the cached paths.
type memoryCache struct {
	entries map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = payload
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func newReportFixture(cache *CacheService, metrics *MetricsService) (*ReportService, *mockReportEnrollmentSource) {
	avg := 84.333333
	enrollments := &mockReportEnrollmentSource{
		stats: []models.CourseEnrollmentStat{
			{CourseID: "c1", Title: "Databases", Capacity: 30, Enrolled: 28, Available: 2, Pending: 3},
			{CourseID: "c2", Title: "Networks", Capacity: 25, Enrolled: 25, Available: 0, Pending: 1},
		},
		total: 53,
	}
	grades := &mockReportGradeSource{
		stats: []models.CourseGradeStat{{CourseID: "c1", Title: "Databases", AverageGrade: 81.25, TotalGrades: 20}},
		total: 20,
		byStu: []models.GradeDetail{
			{Grade: models.Grade{ID: "g1", StudentID: "s1", CourseID: "c1", Score: 95}, CourseTitle: "Databases", LetterGrade: "A"},
			{Grade: models.Grade{ID: "g2", StudentID: "s1", CourseID: "c2", Score: 85}, CourseTitle: "Networks", LetterGrade: "B"},
		},
		average: &avg,
	}
	students := &mockReportStudentSource{
		store: &mockStudentStore{students: map[string]models.Student{
			"s1": {ID: "s1", Name: "Sara", Email: "sara@eng.asu.edu.eg"},
		}},
		total: 40,
	}
	courses := &mockReportCourseSource{total: 2}
	svc := NewReportService(enrollments, grades, students, courses, cache, metrics, time.Minute, zap.NewNop())
	return svc, enrollments
}

func TestReportServiceEnrollmentReport(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	report, err := svc.EnrollmentReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalCourses)
	assert.Equal(t, 40, report.TotalStudents)
	assert.Equal(t, 53, report.TotalEnrollments)
	require.Len(t, report.Courses, 2)
	assert.Equal(t, 2, report.Courses[0].Available)
}

func TestReportServiceEnrollmentReportCached(t *testing.T) {
	cache := NewCacheService(&memoryCache{}, nil, time.Minute, zap.NewNop(), true)
	svc, enrollments := newReportFixture(cache, nil)

	_, err := svc.EnrollmentReport(context.Background())
	require.NoError(t, err)
	_, err = svc.EnrollmentReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, enrollments.calls, "second read is served from cache")

	svc.InvalidateSummaries(context.Background())
	_, err = svc.EnrollmentReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, enrollments.calls, "invalidation forces a rebuild")
}

func TestReportServiceObservesQueryTiming(t *testing.T) {
	metrics := NewMetricsService()
	cache := NewCacheService(&memoryCache{}, nil, time.Minute, zap.NewNop(), true)
	svc, _ := newReportFixture(cache, metrics)

	_, err := svc.EnrollmentReport(context.Background())
	require.NoError(t, err)
	_, err = svc.EnrollmentReport(context.Background())
	require.NoError(t, err)
	_, err = svc.StudentReport(context.Background(), "s1")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	// The cached second read must not add a sample.
	assert.Contains(t, body, `db_query_duration_seconds_count{query="enrollment_report"} 1`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="student_report"} 1`)
	assert.NotContains(t, body, `query="grade_report"`)
}

func TestReportServiceGradeReport(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	report, err := svc.GradeReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.TotalGrades)
	require.Len(t, report.Courses, 1)
	assert.Equal(t, 81.25, report.Courses[0].AverageGrade)
}

func TestReportServiceStudentReport(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	report, err := svc.StudentReport(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Sara", report.Student.Name)
	assert.Equal(t, 84.33, report.GPA)
	assert.Equal(t, 3.5, report.GPA4Scale)
	require.Len(t, report.Grades, 2)
}

func TestReportServiceStudentReportMissing(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	_, err := svc.StudentReport(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportCSV(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	payload, contentType, err := svc.ExportEnrollmentReport(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := bytes.Split(bytes.TrimSpace(payload), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "Course,Capacity,Enrolled,Available,Pending", string(bytes.TrimSpace(lines[0])))
	assert.Contains(t, string(lines[1]), "Databases")
}

func TestReportServiceExportPDF(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	payload, contentType, err := svc.ExportStudentReport(context.Background(), "s1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestReportServiceExportUnsupportedFormat(t *testing.T) {
	svc, _ := newReportFixture(nil, nil)

	_, _, err := svc.ExportGradeReport(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "unsupported export format: xlsx")
}
