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

// AdminNotificationRepository handles persistence of admin notifications.
type AdminNotificationRepository struct {
	db *sqlx.DB
}

// NewAdminNotificationRepository constructs the repository.
func NewAdminNotificationRepository(db *sqlx.DB) *AdminNotificationRepository {
	return &AdminNotificationRepository{db: db}
}

// Create persists a new admin notification row.
func (r *AdminNotificationRepository) Create(ctx context.Context, n *models.AdminNotification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	const query = `INSERT INTO admin_notifications (id, message, admin_id, type, related_entity_id, related_entity_type, read, sent_at)
        VALUES (:id, :message, :admin_id, :type, :related_entity_id, :related_entity_type, :read, :sent_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Ext(ctx, r.db), query, n); err != nil {
		return fmt.Errorf("create admin notification: %w", err)
	}
	return nil
}

// ListByAdmin returns an administrator's notifications newest first.
func (r *AdminNotificationRepository) ListByAdmin(ctx context.Context, adminID string) ([]models.AdminNotification, error) {
	const query = `SELECT id, message, admin_id, type, related_entity_id, related_entity_type, read, sent_at
        FROM admin_notifications WHERE admin_id = $1 ORDER BY sent_at DESC`
	var notifications []models.AdminNotification
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &notifications, query, adminID); err != nil {
		return nil, fmt.Errorf("list admin notifications: %w", err)
	}
	return notifications, nil
}

// ListUnreadByAdmin returns an administrator's unread notifications.
func (r *AdminNotificationRepository) ListUnreadByAdmin(ctx context.Context, adminID string) ([]models.AdminNotification, error) {
	const query = `SELECT id, message, admin_id, type, related_entity_id, related_entity_type, read, sent_at
        FROM admin_notifications WHERE admin_id = $1 AND read = FALSE ORDER BY sent_at DESC`
	var notifications []models.AdminNotification
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &notifications, query, adminID); err != nil {
		return nil, fmt.Errorf("list unread admin notifications: %w", err)
	}
	return notifications, nil
}

// CountUnreadByAdmin returns the unread count for an administrator.
func (r *AdminNotificationRepository) CountUnreadByAdmin(ctx context.Context, adminID string) (int, error) {
	const query = `SELECT COUNT(*) FROM admin_notifications WHERE admin_id = $1 AND read = FALSE`
	var count int
	if err := sqlx.GetContext(ctx, database.Ext(ctx, r.db), &count, query, adminID); err != nil {
		return 0, fmt.Errorf("count unread admin notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags a single admin notification as read.
func (r *AdminNotificationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := database.Ext(ctx, r.db).ExecContext(ctx, `UPDATE admin_notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark admin notification read: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification for the admin as read.
func (r *AdminNotificationRepository) MarkAllRead(ctx context.Context, adminID string) error {
	if _, err := database.Ext(ctx, r.db).ExecContext(ctx, `UPDATE admin_notifications SET read = TRUE WHERE admin_id = $1 AND read = FALSE`, adminID); err != nil {
		return fmt.Errorf("mark all admin notifications read: %w", err)
	}
	return nil
}

// ListAll returns every admin notification newest first.
func (r *AdminNotificationRepository) ListAll(ctx context.Context) ([]models.AdminNotification, error) {
	const query = `SELECT id, message, admin_id, type, related_entity_id, related_entity_type, read, sent_at
        FROM admin_notifications ORDER BY sent_at DESC`
	var notifications []models.AdminNotification
	if err := sqlx.SelectContext(ctx, database.Ext(ctx, r.db), &notifications, query); err != nil {
		return nil, fmt.Errorf("list all admin notifications: %w", err)
	}
	return notifications, nil
}
