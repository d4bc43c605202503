package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/pkg/database"
)

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.enrolled_at, e.status,
        s.name AS student_name, s.email AS student_email, c.title AS course_title
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollment details filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	ext := database.Ext(ctx, r.db)

	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY e.enrolled_at DESC LIMIT %d OFFSET %d", enrollmentDetailSelect, clause, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, ext, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM enrollments e" + clause
	var total int
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrolled_at, status FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and course context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByStudentAndCourse returns the enrollment for the pair regardless of
// status. At most one row exists per pair.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrolled_at, status FROM enrollments WHERE student_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CountActiveByCourse returns the number of ACTIVE enrollments for a course.
func (r *EnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2`
	var count int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &count, query, courseID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, enrolled_at, status)
        VALUES (:id, :student_id, :course_id, :enrolled_at, :status)`
	if _, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus updates the status for an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `UPDATE enrollments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByStudent returns a student's enrollments, optionally ACTIVE only.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if activeOnly {
		query += ` AND e.status = $2`
		args = append(args, models.EnrollmentStatusActive)
	}
	query += ` ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns a course's enrollments, optionally ACTIVE only.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.course_id = $1`
	args := []interface{}{courseID}
	if activeOnly {
		query += ` AND e.status = $2`
		args = append(args, models.EnrollmentStatusActive)
	}
	query += ` ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStatus returns enrollments in the given status, newest first.
func (r *EnrollmentRepository) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.status = $1 ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &enrollments, query, status); err != nil {
		return nil, fmt.Errorf("list enrollments by status: %w", err)
	}
	return enrollments, nil
}

// Count returns the total number of enrollment rows.
func (r *EnrollmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &total, `SELECT COUNT(*) FROM enrollments`); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

// CourseSeatStats aggregates per-course occupancy for reporting.
func (r *EnrollmentRepository) CourseSeatStats(ctx context.Context) ([]models.CourseEnrollmentStat, error) {
	const query = `SELECT c.id AS course_id, c.title, c.capacity,
        COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled,
        COUNT(e.id) FILTER (WHERE e.status = 'PENDING') AS pending
        FROM courses c LEFT JOIN enrollments e ON e.course_id = c.id
        GROUP BY c.id ORDER BY c.title`
	rows, err := database.Ext(ctx, r.db).QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("course seat stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CourseEnrollmentStat
	for rows.Next() {
		var s models.CourseEnrollmentStat
		if err := rows.Scan(&s.CourseID, &s.Title, &s.Capacity, &s.Enrolled, &s.Pending); err != nil {
			return nil, fmt.Errorf("scan seat stat: %w", err)
		}
		s.Available = s.Capacity - s.Enrolled
		if s.Available < 0 {
			s.Available = 0
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
