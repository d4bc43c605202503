package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type gradeStore interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
	AverageByStudent(ctx context.Context, studentID string) (*float64, error)
	AverageByCourse(ctx context.Context, courseID string) (*float64, error)
	Delete(ctx context.Context, id string) error
}

// RecordGradeRequest describes the grade recording payload. Scores are
// percentages; recording twice for the same pair overwrites in place.
type RecordGradeRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	CourseID      string  `json:"course_id" validate:"required"`
	Score         float64 `json:"score" validate:"min=0,max=100"`
	Comments      string  `json:"comments"`
	ActingAdminID string  `json:"-"`
}

// UpdateGradeRequest adjusts an existing grade row by its ID.
type UpdateGradeRequest struct {
	Score    float64 `json:"score" validate:"min=0,max=100"`
	Comments string  `json:"comments"`
}

// GradeService records grades and computes GPA aggregates. GPA is the
// arithmetic mean of raw percentage scores rounded half-up to two decimals;
// the 4.0-scale conversion is exposed for transcript display only.
type GradeService struct {
	repo          gradeStore
	students      studentReader
	courses       courseReader
	notifications notificationWriter
	adminNotifier gradeAdminNotifier
	tx            txRunner
	validator     *validator.Validate
	logger        *zap.Logger
}

type gradeAdminNotifier interface {
	NotifyGradeRecorded(ctx context.Context, studentID, studentName, courseTitle, adminID string, isNew bool) error
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeStore, students studentReader, courses courseReader, notifications notificationWriter, admins gradeAdminNotifier, tx txRunner, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		repo:          repo,
		students:      students,
		courses:       courses,
		notifications: notifications,
		adminNotifier: admins,
		tx:            tx,
		validator:     validate,
		logger:        logger,
	}
}

// RecordGrade upserts the score for a (student, course) pair and always
// notifies the student with the numeric score and derived letter grade. The
// upsert and the notification commit as one unit.
func (s *GradeService) RecordGrade(ctx context.Context, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "grade must be between 0 and 100")
	}

	var grade *models.Grade
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		student, err := s.students.FindByID(ctx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		course, err := s.courses.FindByID(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		isNew := false
		existing, err := s.repo.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
			}
			isNew = true
		}

		grade = &models.Grade{StudentID: req.StudentID, CourseID: req.CourseID, Score: req.Score, Comments: req.Comments}
		if existing != nil {
			grade.ID = existing.ID
		}
		if err := s.repo.Upsert(ctx, grade); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
		}

		if err := s.notifications.Create(ctx, &models.Notification{
			Message:     fmt.Sprintf("Grade updated for %s: %g%% (%s)", course.Title, grade.Score, grade.LetterGrade()),
			RecipientID: student.ID,
			Type:        models.NotificationGradeUpdate,
		}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student")
		}

		if req.ActingAdminID != "" {
			if err := s.adminNotifier.NotifyGradeRecorded(ctx, student.ID, student.Name, course.Title, req.ActingAdminID, isNew); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify administrator")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("grade recorded",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.Float64("score", req.Score))
	return grade, nil
}

// UpdateGrade rewrites score and comments for an existing grade row and
// notifies the student.
func (s *GradeService) UpdateGrade(ctx context.Context, gradeID string, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "grade must be between 0 and 100")
	}

	var grade *models.Grade
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, gradeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
		}
		course, err := s.courses.FindByID(ctx, existing.CourseID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		existing.Score = req.Score
		existing.Comments = req.Comments
		if err := s.repo.Update(ctx, existing); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
		}
		grade = existing

		if err := s.notifications.Create(ctx, &models.Notification{
			Message:     fmt.Sprintf("Grade updated for %s: %g%% (%s)", course.Title, grade.Score, grade.LetterGrade()),
			RecipientID: grade.StudentID,
			Type:        models.NotificationGradeUpdate,
		}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grade, nil
}

// Get returns the grade for a (student, course) pair.
func (s *GradeService) Get(ctx context.Context, studentID, courseID string) (*models.Grade, error) {
	grade, err := s.repo.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// StudentGrades lists a student's grades with course titles.
func (s *GradeService) StudentGrades(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student grades")
	}
	return grades, nil
}

// CourseGrades lists a course's grades.
func (s *GradeService) CourseGrades(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	grades, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course grades")
	}
	return grades, nil
}

// StudentGPA returns the mean of a student's percentage scores rounded
// half-up to two decimals, or 0 when no grades exist.
func (s *GradeService) StudentGPA(ctx context.Context, studentID string) (float64, error) {
	avg, err := s.repo.AverageByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute gpa")
	}
	if avg == nil {
		return 0, nil
	}
	return models.RoundHalfUp(*avg), nil
}

// StudentGPA4Scale converts each score through the 4.0 step table before
// averaging. Transcript display only; StudentGPA is the canonical figure.
func (s *GradeService) StudentGPA4Scale(ctx context.Context, studentID string) (float64, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute gpa")
	}
	if len(grades) == 0 {
		return 0, nil
	}
	var total float64
	for _, g := range grades {
		total += models.GradePoints(g.Score)
	}
	return models.RoundHalfUp(total / float64(len(grades))), nil
}

// CourseAverage returns the mean score for a course rounded half-up to two
// decimals, or 0 when the course has no grades.
func (s *GradeService) CourseAverage(ctx context.Context, courseID string) (float64, error) {
	avg, err := s.repo.AverageByCourse(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute course average")
	}
	if avg == nil {
		return 0, nil
	}
	return models.RoundHalfUp(*avg), nil
}

// DeleteGrade removes a grade row.
func (s *GradeService) DeleteGrade(ctx context.Context, gradeID string) error {
	if err := s.repo.Delete(ctx, gradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}
