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

const gradeDetailSelect = `SELECT g.id, g.student_id, g.course_id, g.score, g.comments, g.recorded_at,
        c.title AS course_title
        FROM grades g JOIN courses c ON c.id = g.course_id`

// GradeRepository handles persistence of grade records.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByID returns a grade by its ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, student_id, course_id, score, comments, recorded_at FROM grades WHERE id = $1`
	var grade models.Grade
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// FindByStudentAndCourse returns the grade for the pair when present.
func (r *GradeRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Grade, error) {
	const query = `SELECT id, student_id, course_id, score, comments, recorded_at FROM grades WHERE student_id = $1 AND course_id = $2`
	var grade models.Grade
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &grade, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert inserts the grade or, when the (student, course) pair already has a
// row, overwrites its score, comments and recorded timestamp in place.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.RecordedAt.IsZero() {
		grade.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, student_id, course_id, score, comments, recorded_at)
        VALUES (:id, :student_id, :course_id, :score, :comments, :recorded_at)
        ON CONFLICT (student_id, course_id)
        DO UPDATE SET score = EXCLUDED.score, comments = EXCLUDED.comments, recorded_at = EXCLUDED.recorded_at`
	if _, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// Update rewrites score and comments for an existing grade row.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.RecordedAt = time.Now().UTC()
	const query = `UPDATE grades SET score = :score, comments = :comments, recorded_at = :recorded_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, grade)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByStudent returns a student's grades with course titles.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	query := gradeDetailSelect + ` WHERE g.student_id = $1 ORDER BY g.recorded_at DESC`
	var grades []models.GradeDetail
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	for i := range grades {
		grades[i].LetterGrade = grades[i].Grade.LetterGrade()
	}
	return grades, nil
}

// ListByCourse returns a course's grades.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	query := gradeDetailSelect + ` WHERE g.course_id = $1 ORDER BY g.recorded_at DESC`
	var grades []models.GradeDetail
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	for i := range grades {
		grades[i].LetterGrade = grades[i].Grade.LetterGrade()
	}
	return grades, nil
}

// AverageByStudent returns the mean score across a student's grades, or nil
// when the student has none.
func (r *GradeRepository) AverageByStudent(ctx context.Context, studentID string) (*float64, error) {
	const query = `SELECT AVG(score) FROM grades WHERE student_id = $1`
	var avg *float64
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &avg, query, studentID); err != nil {
		return nil, fmt.Errorf("average student grade: %w", err)
	}
	return avg, nil
}

// AverageByCourse returns the mean score across a course's grades, or nil
// when the course has none.
func (r *GradeRepository) AverageByCourse(ctx context.Context, courseID string) (*float64, error) {
	const query = `SELECT AVG(score) FROM grades WHERE course_id = $1`
	var avg *float64
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &avg, query, courseID); err != nil {
		return nil, fmt.Errorf("average course grade: %w", err)
	}
	return avg, nil
}

// Delete removes the grade row.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the number of grade rows.
func (r *GradeRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &total, `SELECT COUNT(*) FROM grades`); err != nil {
		return 0, fmt.Errorf("count grades: %w", err)
	}
	return total, nil
}

// CourseGradeStats aggregates per-course grading for reporting.
func (r *GradeRepository) CourseGradeStats(ctx context.Context) ([]models.CourseGradeStat, error) {
	const query = `SELECT c.id AS course_id, c.title, COALESCE(AVG(g.score), 0) AS average_grade, COUNT(g.id) AS total_grades
        FROM courses c LEFT JOIN grades g ON g.course_id = c.id
        GROUP BY c.id ORDER BY c.title`
	rows, err := database.Ext(ctx, r.db).QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("course grade stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CourseGradeStat
	for rows.Next() {
		var s models.CourseGradeStat
		if err := rows.Scan(&s.CourseID, &s.Title, &s.AverageGrade, &s.TotalGrades); err != nil {
			return nil, fmt.Errorf("scan grade stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
