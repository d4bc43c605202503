package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
	"github.com/mohamedmahmoud95/scms-api/pkg/export"
)

const (
	cacheKeyEnrollmentReport = "reports:enrollments"
	cacheKeyGradeReport      = "reports:grades"
)

func cacheKeyStudentReport(studentID string) string {
	return "reports:student:" + studentID
}

type reportEnrollmentSource interface {
	CourseSeatStats(ctx context.Context) ([]models.CourseEnrollmentStat, error)
	Count(ctx context.Context) (int, error)
	ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.EnrollmentDetail, error)
}

type reportGradeSource interface {
	CourseGradeStats(ctx context.Context) ([]models.CourseGradeStat, error)
	Count(ctx context.Context) (int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	AverageByStudent(ctx context.Context, studentID string) (*float64, error)
}

type reportStudentSource interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Count(ctx context.Context) (int, error)
}

type reportCourseSource interface {
	Count(ctx context.Context) (int, error)
}

// ReportService assembles enrollment, grade and per-student reports.
// Summary reports are cached in Redis for a short TTL and invalidated on
// writes; exports render the same data as CSV or PDF.
type ReportService struct {
	enrollments reportEnrollmentSource
	grades      reportGradeSource
	students    reportStudentSource
	courses     reportCourseSource
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	ttl         time.Duration
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(enrollments reportEnrollmentSource, grades reportGradeSource, students reportStudentSource, courses reportCourseSource, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ReportService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		enrollments: enrollments,
		grades:      grades,
		students:    students,
		courses:     courses,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		ttl:         ttl,
		logger:      logger,
	}
}

// EnrollmentReport returns seat occupancy per course plus system totals.
func (s *ReportService) EnrollmentReport(ctx context.Context) (*models.EnrollmentReport, error) {
	var cached models.EnrollmentReport
	if hit, err := s.cache.Get(ctx, cacheKeyEnrollmentReport, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	stats, err := s.enrollments.CourseSeatStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build enrollment report")
	}
	totalCourses, err := s.courses.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	totalEnrollments, err := s.enrollments.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	s.metrics.ObserveDBQuery("enrollment_report", time.Since(start))

	report := &models.EnrollmentReport{
		TotalCourses:     totalCourses,
		TotalStudents:    totalStudents,
		TotalEnrollments: totalEnrollments,
		Courses:          stats,
	}
	_ = s.cache.Set(ctx, cacheKeyEnrollmentReport, report, s.ttl)
	return report, nil
}

// GradeReport returns per-course grade averages plus the system total.
func (s *ReportService) GradeReport(ctx context.Context) (*models.GradeReport, error) {
	var cached models.GradeReport
	if hit, err := s.cache.Get(ctx, cacheKeyGradeReport, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	stats, err := s.grades.CourseGradeStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build grade report")
	}
	total, err := s.grades.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count grades")
	}

	s.metrics.ObserveDBQuery("grade_report", time.Since(start))

	report := &models.GradeReport{TotalGrades: total, Courses: stats}
	_ = s.cache.Set(ctx, cacheKeyGradeReport, report, s.ttl)
	return report, nil
}

// StudentReport collects one student's enrollments, grades and GPA figures.
func (s *ReportService) StudentReport(ctx context.Context, studentID string) (*models.StudentReport, error) {
	var cached models.StudentReport
	if hit, err := s.cache.Get(ctx, cacheKeyStudentReport(studentID), &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}

	var gpa float64
	if avg, err := s.grades.AverageByStudent(ctx, studentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute gpa")
	} else if avg != nil {
		gpa = models.RoundHalfUp(*avg)
	}

	var gpa4 float64
	if len(grades) > 0 {
		var total float64
		for _, g := range grades {
			total += models.GradePoints(g.Score)
		}
		gpa4 = models.RoundHalfUp(total / float64(len(grades)))
	}

	s.metrics.ObserveDBQuery("student_report", time.Since(start))

	report := &models.StudentReport{
		Student:     *student,
		Enrollments: enrollments,
		Grades:      grades,
		GPA:         gpa,
		GPA4Scale:   gpa4,
	}
	_ = s.cache.Set(ctx, cacheKeyStudentReport(studentID), report, s.ttl)
	return report, nil
}

// ExportEnrollmentReport renders the enrollment report in the requested
// format. Supported formats are "csv" and "pdf".
func (s *ReportService) ExportEnrollmentReport(ctx context.Context, format string) ([]byte, string, error) {
	report, err := s.EnrollmentReport(ctx)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Course", "Capacity", "Enrolled", "Available", "Pending"}}
	for _, c := range report.Courses {
		data.Rows = append(data.Rows, map[string]string{
			"Course":    c.Title,
			"Capacity":  strconv.Itoa(c.Capacity),
			"Enrolled":  strconv.Itoa(c.Enrolled),
			"Available": strconv.Itoa(c.Available),
			"Pending":   strconv.Itoa(c.Pending),
		})
	}
	return s.render(data, "Enrollment Report", format)
}

// ExportGradeReport renders the grade report in the requested format.
func (s *ReportService) ExportGradeReport(ctx context.Context, format string) ([]byte, string, error) {
	report, err := s.GradeReport(ctx)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Course", "Average Grade", "Total Grades"}}
	for _, c := range report.Courses {
		data.Rows = append(data.Rows, map[string]string{
			"Course":        c.Title,
			"Average Grade": strconv.FormatFloat(c.AverageGrade, 'f', 2, 64),
			"Total Grades":  strconv.Itoa(c.TotalGrades),
		})
	}
	return s.render(data, "Grade Report", format)
}

// ExportStudentReport renders one student's transcript in the requested format.
func (s *ReportService) ExportStudentReport(ctx context.Context, studentID, format string) ([]byte, string, error) {
	report, err := s.StudentReport(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Course", "Score", "Letter Grade"}}
	for _, g := range report.Grades {
		data.Rows = append(data.Rows, map[string]string{
			"Course":       g.CourseTitle,
			"Score":        strconv.FormatFloat(g.Score, 'f', 2, 64),
			"Letter Grade": g.LetterGrade,
		})
	}
	title := fmt.Sprintf("Transcript - %s (GPA %.2f)", report.Student.Name, report.GPA)
	return s.render(data, title, format)
}

func (s *ReportService) render(data export.Dataset, title, format string) ([]byte, string, error) {
	switch format {
	case "", "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %s", format))
	}
}

// InvalidateSummaries drops the cached system-wide reports. Called after
// enrollment or grade writes.
func (s *ReportService) InvalidateSummaries(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyEnrollmentReport, cacheKeyGradeReport); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

// InvalidateStudent drops one student's cached report.
func (s *ReportService) InvalidateStudent(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, cacheKeyStudentReport(studentID)); err != nil {
		s.logger.Warn("failed to invalidate student report cache", zap.Error(err))
	}
}
