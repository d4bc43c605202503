package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/internal/repository"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	CountActiveByCourse(ctx context.Context, courseID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.EnrollmentDetail, error)
	ListByCourse(ctx context.Context, courseID string, activeOnly bool) ([]models.EnrollmentDetail, error)
	ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Course, error)
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

type adminNotifier interface {
	NotifyPendingEnrollmentRequest(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle string) error
	NotifyEnrollmentApproved(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle, adminID string) error
	NotifyEnrollmentRejected(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle, adminID string) error
	NotifyWithdrawal(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle string) error
}

// txRunner executes a function within a single database transaction so that
// multi-row workflows leave no partial state behind.
type txRunner interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

// EnrollStudentRequest describes enrollment creation payload.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// UpdateEnrollmentStatusRequest describes the admin review payload.
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EnrollmentService orchestrates the enrollment/withdrawal state machine:
// rows are created PENDING, move to ACTIVE or WITHDRAWN through admin
// review, and WITHDRAWN is terminal.
type EnrollmentService struct {
	repo          enrollmentStore
	students      studentReader
	courses       courseReader
	notifications notificationWriter
	adminNotifier adminNotifier
	tx            txRunner
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentStore, students studentReader, courses courseReader, notifications notificationWriter, admins adminNotifier, tx txRunner, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
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

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Enroll submits a PENDING enrollment for the student. The capacity check,
// duplicate check, row insert and both notification writes commit or roll
// back as one unit. The course row is locked so two racing calls for the
// last seat cannot both pass the capacity check, and the unique index on
// (student_id, course_id) turns a racing duplicate into a Conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	var detail *models.EnrollmentDetail
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		student, err := s.students.FindByID(ctx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}

		course, err := s.courses.FindByIDForUpdate(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		active, err := s.repo.CountActiveByCourse(ctx, course.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
		}
		if active >= course.Capacity {
			return appErrors.Clone(appErrors.ErrCourseFull, fmt.Sprintf("course %s is full", course.Title))
		}

		// Any existing row for the pair blocks re-enrollment, including a
		// WITHDRAWN one: withdrawal is terminal per course.
		if _, err := s.repo.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID); err == nil {
			return appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}

		enrollment := &models.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID, Status: models.EnrollmentStatusPending}
		if err := s.repo.Create(ctx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}

		if err := s.notifications.Create(ctx, &models.Notification{
			Message:     fmt.Sprintf("Enrollment request submitted for %s. Waiting for admin approval.", course.Title),
			RecipientID: student.ID,
			Type:        models.NotificationEnrollment,
		}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student")
		}

		if err := s.adminNotifier.NotifyPendingEnrollmentRequest(ctx, enrollment, student.Name, course.Title); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify administrators")
		}

		detail, err = s.repo.FindDetailByID(ctx, enrollment.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrollment submitted",
		zap.String("enrollment_id", detail.ID),
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID))
	return detail, nil
}

// Withdraw moves an ACTIVE or PENDING enrollment to WITHDRAWN and notifies
// the student plus every administrator.
func (s *EnrollmentService) Withdraw(ctx context.Context, studentID, courseID string) error {
	return s.tx.Within(ctx, func(ctx context.Context) error {
		student, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		enrollment, err := s.repo.FindByStudentAndCourse(ctx, studentID, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}

		if enrollment.Status != models.EnrollmentStatusActive && enrollment.Status != models.EnrollmentStatusPending {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "can only withdraw from active or pending enrollments")
		}

		if err := s.repo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusWithdrawn); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
		}

		if err := s.notifications.Create(ctx, &models.Notification{
			Message:     fmt.Sprintf("Successfully withdrawn from %s", course.Title),
			RecipientID: student.ID,
			Type:        models.NotificationWithdrawal,
		}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student")
		}

		if err := s.adminNotifier.NotifyWithdrawal(ctx, enrollment, student.Name, course.Title); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify administrators")
		}
		return nil
	})
}

// UpdateStatus applies an admin review decision to an enrollment. The
// student is told the outcome and the acting admin receives a record of the
// decision for ACTIVE and WITHDRAWN targets.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, enrollmentID, rawStatus, actingAdminID string) (*models.EnrollmentDetail, error) {
	status, ok := models.ParseEnrollmentStatus(rawStatus)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid enrollment status: %s", rawStatus))
	}

	var detail *models.EnrollmentDetail
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		enrollment, err := s.repo.FindByID(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}

		if err := s.repo.UpdateStatus(ctx, enrollment.ID, status); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
		}

		detail, err = s.repo.FindDetailByID(ctx, enrollment.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
		}

		var message string
		switch status {
		case models.EnrollmentStatusActive:
			message = fmt.Sprintf("Your enrollment in %s has been approved!", detail.CourseTitle)
		case models.EnrollmentStatusWithdrawn:
			message = fmt.Sprintf("Your enrollment in %s has been rejected.", detail.CourseTitle)
		default:
			message = fmt.Sprintf("Your enrollment status in %s has been updated to %s", detail.CourseTitle, status)
		}
		if err := s.notifications.Create(ctx, &models.Notification{
			Message:     message,
			RecipientID: enrollment.StudentID,
			Type:        models.NotificationEnrollment,
		}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student")
		}

		switch status {
		case models.EnrollmentStatusActive:
			err = s.adminNotifier.NotifyEnrollmentApproved(ctx, enrollment, detail.StudentName, detail.CourseTitle, actingAdminID)
		case models.EnrollmentStatusWithdrawn:
			err = s.adminNotifier.NotifyEnrollmentRejected(ctx, enrollment, detail.StudentName, detail.CourseTitle, actingAdminID)
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify administrator")
		}

		detail.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Approve is a convenience wrapper moving a PENDING enrollment to ACTIVE.
func (s *EnrollmentService) Approve(ctx context.Context, enrollmentID, actingAdminID string) (*models.EnrollmentDetail, error) {
	return s.UpdateStatus(ctx, enrollmentID, string(models.EnrollmentStatusActive), actingAdminID)
}

// Reject is a convenience wrapper moving a PENDING enrollment to WITHDRAWN.
func (s *EnrollmentService) Reject(ctx context.Context, enrollmentID, actingAdminID string) (*models.EnrollmentDetail, error) {
	return s.UpdateStatus(ctx, enrollmentID, string(models.EnrollmentStatusWithdrawn), actingAdminID)
}

// GetByID returns a single enrollment with context.
func (s *EnrollmentService) GetByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// StudentEnrollments lists a student's enrollments, optionally ACTIVE only.
func (s *EnrollmentService) StudentEnrollments(ctx context.Context, studentID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	return enrollments, nil
}

// CourseEnrollments lists a course's enrollments, optionally ACTIVE only.
func (s *EnrollmentService) CourseEnrollments(ctx context.Context, courseID string, activeOnly bool) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByCourse(ctx, courseID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course enrollments")
	}
	return enrollments, nil
}

// IsStudentEnrolled reports whether the student holds an ACTIVE enrollment
// in the course.
func (s *EnrollmentService) IsStudentEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	enrollment, err := s.repo.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return enrollment.Status == models.EnrollmentStatusActive, nil
}

// PendingEnrollments lists the admin review queue.
func (s *EnrollmentService) PendingEnrollments(ctx context.Context) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByStatus(ctx, models.EnrollmentStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending enrollments")
	}
	return enrollments, nil
}
