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

// NotificationRepository handles persistence of student notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a new notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, message, recipient_id, type, read, sent_at)
        VALUES (:id, :message, :recipient_id, :type, :read, :sent_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByID returns a notification by its ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT id, message, recipient_id, type, read, sent_at FROM notifications WHERE id = $1`
	var n models.Notification
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &n, query, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient returns a student's notifications newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	const query = `SELECT id, message, recipient_id, type, read, sent_at FROM notifications WHERE recipient_id = $1 ORDER BY sent_at DESC`
	var notifications []models.Notification
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &notifications, query, recipientID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// ListUnreadByRecipient returns a student's unread notifications newest first.
func (r *NotificationRepository) ListUnreadByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	const query = `SELECT id, message, recipient_id, type, read, sent_at FROM notifications WHERE recipient_id = $1 AND read = FALSE ORDER BY sent_at DESC`
	var notifications []models.Notification
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &notifications, query, recipientID); err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}
	return notifications, nil
}

// CountUnreadByRecipient returns the unread count for a student.
func (r *NotificationRepository) CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`
	var count int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags a single notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification for the student as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	if _, err := database.Ext(ctx, r.db).ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`, recipientID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Delete removes a single notification.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAllByRecipient clears a student's mailbox.
func (r *NotificationRepository) DeleteAllByRecipient(ctx context.Context, recipientID string) error {
	if _, err := database.Ext(ctx, r.db).ExecContext(ctx, `DELETE FROM notifications WHERE recipient_id = $1`, recipientID); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

// ListAll returns every notification newest first, for the admin view.
func (r *NotificationRepository) ListAll(ctx context.Context) ([]models.Notification, error) {
	const query = `SELECT id, message, recipient_id, type, read, sent_at FROM notifications ORDER BY sent_at DESC`
	var notifications []models.Notification
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &notifications, query); err != nil {
		return nil, fmt.Errorf("list all notifications: %w", err)
	}
	return notifications, nil
}
