package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	ListUnreadByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	Delete(ctx context.Context, id string) error
	DeleteAllByRecipient(ctx context.Context, recipientID string) error
	ListAll(ctx context.Context) ([]models.Notification, error)
}

// NotificationService is the students' mailbox: rows are appended by the
// enrollment and grade workflows and consumed read-only by students.
type NotificationService struct {
	repo     notificationStore
	students studentReader
	logger   *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(repo notificationStore, students studentReader, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, students: students, logger: logger}
}

// Send appends a notification addressed to one student.
func (s *NotificationService) Send(ctx context.Context, studentID, message string, typ models.NotificationType) (*models.Notification, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	n := &models.Notification{Message: message, RecipientID: studentID, Type: typ}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return n, nil
}

// ListForStudent returns a student's notifications newest first.
func (s *NotificationService) ListForStudent(ctx context.Context, studentID string, unreadOnly bool) ([]models.Notification, error) {
	var (
		notifications []models.Notification
		err           error
	)
	if unreadOnly {
		notifications, err = s.repo.ListUnreadByRecipient(ctx, studentID)
	} else {
		notifications, err = s.repo.ListByRecipient(ctx, studentID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the unread total for a student.
func (s *NotificationService) UnreadCount(ctx context.Context, studentID string) (int, error) {
	count, err := s.repo.CountUnreadByRecipient(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags all of a student's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, studentID string) error {
	if err := s.repo.MarkAllRead(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Delete removes one notification from the mailbox.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

// DeleteAllForStudent clears a student's mailbox.
func (s *NotificationService) DeleteAllForStudent(ctx context.Context, studentID string) error {
	if err := s.repo.DeleteAllByRecipient(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notifications")
	}
	return nil
}

// ListAll returns every notification, newest first. Admin view.
func (s *NotificationService) ListAll(ctx context.Context) ([]models.Notification, error) {
	notifications, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}
