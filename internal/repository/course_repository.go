package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/pkg/database"
)

const courseSeatsSelect = `SELECT c.id, c.title, c.description, c.capacity, c.prerequisites, c.created_at, c.updated_at,
        COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled_count
        FROM courses c LEFT JOIN enrollments e ON e.course_id = c.id
        GROUP BY c.id`

// CourseRepository handles persistence of the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter with live seat counts.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSeats, int, error) {
	ext := database.Ext(ctx, r.db)

	clause := ""
	var args []interface{}
	if filter.Title != "" {
		clause = " WHERE c.title ILIKE $1"
		args = append(args, "%"+filter.Title+"%")
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

	query := fmt.Sprintf(`SELECT c.id, c.title, c.description, c.capacity, c.prerequisites, c.created_at, c.updated_at,
        COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled_count
        FROM courses c LEFT JOIN enrollments e ON e.course_id = c.id%s
        GROUP BY c.id ORDER BY c.title LIMIT %d OFFSET %d`, clause, size, offset)

	var courses []models.CourseSeats
	if err := sqlx.SelectContext(ctx, ext, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM courses c"
	if clause != "" {
		countQuery += clause
	}
	var total int
	if err := sqlx.GetContext(ctx, ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, description, capacity, prerequisites, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDForUpdate locks the course row for the rest of the transaction.
// Serialises racing capacity checks on the same course.
func (r *CourseRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, description, capacity, prerequisites, created_at, updated_at FROM courses WHERE id = $1 FOR UPDATE`
	var course models.Course
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindSeatsByID returns a course together with its active enrollment count.
func (r *CourseRepository) FindSeatsByID(ctx context.Context, id string) (*models.CourseSeats, error) {
	const query = `SELECT c.id, c.title, c.description, c.capacity, c.prerequisites, c.created_at, c.updated_at,
        COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') AS enrolled_count
        FROM courses c LEFT JOIN enrollments e ON e.course_id = c.id
        WHERE c.id = $1 GROUP BY c.id`
	var seats models.CourseSeats
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &seats, query, id); err != nil {
		return nil, err
	}
	return &seats, nil
}

// ListAvailable returns courses that still have open seats.
func (r *CourseRepository) ListAvailable(ctx context.Context) ([]models.CourseSeats, error) {
	query := courseSeatsSelect + ` HAVING COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') < c.capacity ORDER BY c.title`
	var courses []models.CourseSeats
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &courses, query); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return courses, nil
}

// ListFull returns courses at capacity.
func (r *CourseRepository) ListFull(ctx context.Context) ([]models.CourseSeats, error) {
	query := courseSeatsSelect + ` HAVING COUNT(e.id) FILTER (WHERE e.status = 'ACTIVE') >= c.capacity ORDER BY c.title`
	var courses []models.CourseSeats
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &courses, query); err != nil {
		return nil, fmt.Errorf("list full courses: %w", err)
	}
	return courses, nil
}

// Create persists a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, title, description, capacity, prerequisites, created_at, updated_at)
        VALUES (:id, :title, :description, :capacity, :prerequisites, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable course columns.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, capacity = :capacity,
        prerequisites = :prerequisites, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the course row.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the catalog size.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}
