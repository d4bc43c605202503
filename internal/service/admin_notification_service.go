package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type adminNotificationStore interface {
	Create(ctx context.Context, n *models.AdminNotification) error
	ListByAdmin(ctx context.Context, adminID string) ([]models.AdminNotification, error)
	ListUnreadByAdmin(ctx context.Context, adminID string) ([]models.AdminNotification, error)
	CountUnreadByAdmin(ctx context.Context, adminID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, adminID string) error
	ListAll(ctx context.Context) ([]models.AdminNotification, error)
}

type administratorDirectory interface {
	ListAll(ctx context.Context) ([]models.Administrator, error)
	FindByID(ctx context.Context, id string) (*models.Administrator, error)
}

const relatedEntityEnrollment = "ENROLLMENT"
const relatedEntityStudent = "STUDENT"

// AdminNotificationService is the administrators' mailbox. Workflow events
// either target one acting admin or fan out to every administrator.
type AdminNotificationService struct {
	repo   adminNotificationStore
	admins administratorDirectory
	logger *zap.Logger
}

// NewAdminNotificationService constructs AdminNotificationService.
func NewAdminNotificationService(repo adminNotificationStore, admins administratorDirectory, logger *zap.Logger) *AdminNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminNotificationService{repo: repo, admins: admins, logger: logger}
}

// Notify appends one notification addressed to a single administrator.
func (s *AdminNotificationService) Notify(ctx context.Context, adminID, message string, typ models.AdminNotificationType, relatedID, relatedType *string) (*models.AdminNotification, error) {
	if _, err := s.admins.FindByID(ctx, adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "administrator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load administrator")
	}
	n := &models.AdminNotification{
		Message:           message,
		AdminID:           adminID,
		Type:              typ,
		RelatedEntityID:   relatedID,
		RelatedEntityType: relatedType,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin notification")
	}
	return n, nil
}

// Broadcast appends one notification per current administrator.
func (s *AdminNotificationService) Broadcast(ctx context.Context, message string, typ models.AdminNotificationType, relatedID, relatedType *string) error {
	admins, err := s.admins.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list administrators")
	}
	for _, admin := range admins {
		n := &models.AdminNotification{
			Message:           message,
			AdminID:           admin.ID,
			Type:              typ,
			RelatedEntityID:   relatedID,
			RelatedEntityType: relatedType,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin notification")
		}
	}
	return nil
}

// NotifyPendingEnrollmentRequest fans out a new PENDING enrollment to every
// administrator for review.
func (s *AdminNotificationService) NotifyPendingEnrollmentRequest(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle string) error {
	message := fmt.Sprintf("New enrollment request from %s for course: %s", studentName, courseTitle)
	related := relatedEntityEnrollment
	return s.Broadcast(ctx, message, models.AdminNotifPendingEnrollment, &enrollment.ID, &related)
}

// NotifyEnrollmentApproved records the approval against the acting admin.
func (s *AdminNotificationService) NotifyEnrollmentApproved(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle, adminID string) error {
	message := fmt.Sprintf("Enrollment approved for %s in course: %s", studentName, courseTitle)
	related := relatedEntityEnrollment
	_, err := s.Notify(ctx, adminID, message, models.AdminNotifEnrollmentApproved, &enrollment.ID, &related)
	return err
}

// NotifyEnrollmentRejected records the rejection against the acting admin.
func (s *AdminNotificationService) NotifyEnrollmentRejected(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle, adminID string) error {
	message := fmt.Sprintf("Enrollment rejected for %s in course: %s", studentName, courseTitle)
	related := relatedEntityEnrollment
	_, err := s.Notify(ctx, adminID, message, models.AdminNotifEnrollmentRejected, &enrollment.ID, &related)
	return err
}

// NotifyWithdrawal fans out a student withdrawal to every administrator.
func (s *AdminNotificationService) NotifyWithdrawal(ctx context.Context, enrollment *models.Enrollment, studentName, courseTitle string) error {
	message := fmt.Sprintf("Student %s has withdrawn from course: %s", studentName, courseTitle)
	related := relatedEntityEnrollment
	return s.Broadcast(ctx, message, models.AdminNotifWithdrawalApproved, &enrollment.ID, &related)
}

// NotifyGradeRecorded records a grade change against the acting admin.
// isNew selects between the GRADE_ADDED and GRADE_UPDATED types.
func (s *AdminNotificationService) NotifyGradeRecorded(ctx context.Context, studentID, studentName, courseTitle, adminID string, isNew bool) error {
	typ := models.AdminNotifGradeUpdated
	verb := "updated"
	if isNew {
		typ = models.AdminNotifGradeAdded
		verb = "added"
	}
	message := fmt.Sprintf("Grade %s for %s in course: %s", verb, studentName, courseTitle)
	related := relatedEntityStudent
	_, err := s.Notify(ctx, adminID, message, typ, &studentID, &related)
	return err
}

// NotifyCourseCreated records a catalog addition against the acting admin.
func (s *AdminNotificationService) NotifyCourseCreated(ctx context.Context, courseTitle, adminID string) error {
	_, err := s.Notify(ctx, adminID, fmt.Sprintf("New course created: %s", courseTitle), models.AdminNotifCourseCreated, nil, nil)
	return err
}

// NotifyCourseUpdated records a catalog change against the acting admin.
func (s *AdminNotificationService) NotifyCourseUpdated(ctx context.Context, courseTitle, adminID string) error {
	_, err := s.Notify(ctx, adminID, fmt.Sprintf("Course updated: %s", courseTitle), models.AdminNotifCourseUpdated, nil, nil)
	return err
}

// ListForAdmin returns an administrator's notifications newest first.
func (s *AdminNotificationService) ListForAdmin(ctx context.Context, adminID string, unreadOnly bool) ([]models.AdminNotification, error) {
	var (
		notifications []models.AdminNotification
		err           error
	)
	if unreadOnly {
		notifications, err = s.repo.ListUnreadByAdmin(ctx, adminID)
	} else {
		notifications, err = s.repo.ListByAdmin(ctx, adminID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admin notifications")
	}
	return notifications, nil
}

// UnreadCount returns the unread total for an administrator.
func (s *AdminNotificationService) UnreadCount(ctx context.Context, adminID string) (int, error) {
	count, err := s.repo.CountUnreadByAdmin(ctx, adminID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admin notifications")
	}
	return count, nil
}

// MarkRead flags one notification as read.
func (s *AdminNotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags all of an administrator's notifications as read.
func (s *AdminNotificationService) MarkAllRead(ctx context.Context, adminID string) error {
	if err := s.repo.MarkAllRead(ctx, adminID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// ListAll returns every admin notification, newest first.
func (s *AdminNotificationService) ListAll(ctx context.Context) ([]models.AdminNotification, error) {
	notifications, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admin notifications")
	}
	return notifications, nil
}
