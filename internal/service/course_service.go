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

type courseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSeats, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindSeatsByID(ctx context.Context, id string) (*models.CourseSeats, error)
	ListAvailable(ctx context.Context) ([]models.CourseSeats, error)
	ListFull(ctx context.Context) ([]models.CourseSeats, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseEnrollmentReader interface {
	ListByCourse(ctx context.Context, courseID string, activeOnly bool) ([]models.EnrollmentDetail, error)
}

type courseAdminNotifier interface {
	NotifyCourseCreated(ctx context.Context, courseTitle, adminID string) error
	NotifyCourseUpdated(ctx context.Context, courseTitle, adminID string) error
}

// CreateCourseRequest describes the catalog entry payload. Capacity is the
// hard seat limit and must be at least one.
type CreateCourseRequest struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Capacity      int    `json:"capacity" validate:"required,min=1"`
	Prerequisites string `json:"prerequisites"`
	ActingAdminID string `json:"-"`
}

// UpdateCourseRequest describes the catalog update payload.
type UpdateCourseRequest struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Capacity      int    `json:"capacity" validate:"required,min=1"`
	Prerequisites string `json:"prerequisites"`
	ActingAdminID string `json:"-"`
}

// CourseService manages the course catalog. Catalog changes are recorded in
// the acting admin's mailbox, and updates fan out to actively enrolled
// students.
type CourseService struct {
	repo          courseStore
	enrollments   courseEnrollmentReader
	notifications notificationWriter
	adminNotifier courseAdminNotifier
	tx            txRunner
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseStore, enrollments courseEnrollmentReader, notifications notificationWriter, admins courseAdminNotifier, tx txRunner, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:          repo,
		enrollments:   enrollments,
		notifications: notifications,
		adminNotifier: admins,
		tx:            tx,
		validator:     validate,
		logger:        logger,
	}
}

// Create adds a course to the catalog.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "capacity must be at least 1")
	}

	course := &models.Course{
		Title:         req.Title,
		Description:   req.Description,
		Capacity:      req.Capacity,
		Prerequisites: req.Prerequisites,
	}
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, course); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
		}
		if req.ActingAdminID != "" {
			if err := s.adminNotifier.NotifyCourseCreated(ctx, course.Title, req.ActingAdminID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify administrator")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("title", course.Title))
	return course, nil
}

// Update rewrites a catalog entry and notifies every actively enrolled
// student about the change.
func (s *CourseService) Update(ctx context.Context, courseID string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "capacity must be at least 1")
	}

	var course *models.Course
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		existing.Title = req.Title
		existing.Description = req.Description
		existing.Capacity = req.Capacity
		existing.Prerequisites = req.Prerequisites
		if err := s.repo.Update(ctx, existing); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
		}
		course = existing

		enrolled, err := s.enrollments.ListByCourse(ctx, courseID, true)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
		}
		for _, e := range enrolled {
			if err := s.notifications.Create(ctx, &models.Notification{
				Message:     fmt.Sprintf("Course %s has been updated. Check the latest details.", course.Title),
				RecipientID: e.StudentID,
				Type:        models.NotificationCourseUpdate,
			}); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student")
			}
		}

		if req.ActingAdminID != "" {
			if err := s.adminNotifier.NotifyCourseUpdated(ctx, course.Title, req.ActingAdminID); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify administrator")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// Delete removes a course from the catalog.
func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	if err := s.repo.Delete(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// List returns catalog entries with live seat counts and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSeats, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetByID returns a course by its ID.
func (s *CourseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Seats returns a course together with its active enrollment count.
func (s *CourseService) Seats(ctx context.Context, id string) (*models.CourseSeats, error) {
	seats, err := s.repo.FindSeatsByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course seats")
	}
	return seats, nil
}

// HasAvailableSeats reports whether a course can still activate enrollments.
func (s *CourseService) HasAvailableSeats(ctx context.Context, id string) (bool, error) {
	seats, err := s.Seats(ctx, id)
	if err != nil {
		return false, err
	}
	return seats.HasAvailableSeats(), nil
}

// ListAvailable returns courses with open seats.
func (s *CourseService) ListAvailable(ctx context.Context) ([]models.CourseSeats, error) {
	courses, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return courses, nil
}

// ListFull returns courses at capacity.
func (s *CourseService) ListFull(ctx context.Context) ([]models.CourseSeats, error) {
	courses, err := s.repo.ListFull(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list full courses")
	}
	return courses, nil
}
