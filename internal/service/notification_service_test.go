package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
)

type mockNotificationStore struct {
	rows []models.Notification
}

func (m *mockNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = fmt.Sprintf("n-%d", len(m.rows)+1)
	}
	m.rows = append(m.rows, *n)
	return nil
}

func (m *mockNotificationStore) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	for _, n := range m.rows {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationStore) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.rows {
		if n.RecipientID == recipientID {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *mockNotificationStore) ListUnreadByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.rows {
		if n.RecipientID == recipientID && !n.Read {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *mockNotificationStore) CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range m.rows {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationStore) MarkRead(ctx context.Context, id string) error {
	for i, n := range m.rows {
		if n.ID == id {
			m.rows[i].Read = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockNotificationStore) MarkAllRead(ctx context.Context, recipientID string) error {
	for i, n := range m.rows {
		if n.RecipientID == recipientID {
			m.rows[i].Read = true
		}
	}
	return nil
}

func (m *mockNotificationStore) Delete(ctx context.Context, id string) error {
	for i, n := range m.rows {
		if n.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockNotificationStore) DeleteAllByRecipient(ctx context.Context, recipientID string) error {
	var kept []models.Notification
	for _, n := range m.rows {
		if n.RecipientID != recipientID {
			kept = append(kept, n)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockNotificationStore) ListAll(ctx context.Context) ([]models.Notification, error) {
	return m.rows, nil
}

func newNotificationFixture() (*NotificationService, *mockNotificationStore) {
	store := &mockNotificationStore{}
	students := &mockStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", Name: "Sara"},
	}}
	return NewNotificationService(store, students, zap.NewNop()), store
}

func TestNotificationServiceSend(t *testing.T) {
	svc, store := newNotificationFixture()

	n, err := svc.Send(context.Background(), "s1", "Successfully withdrawn from Databases", models.NotificationWithdrawal)
	require.NoError(t, err)
	assert.Equal(t, "s1", n.RecipientID)
	require.Len(t, store.rows, 1)
	assert.False(t, store.rows[0].Read)
}

func TestNotificationServiceSendUnknownStudent(t *testing.T) {
	svc, _ := newNotificationFixture()

	_, err := svc.Send(context.Background(), "ghost", "hello", models.NotificationEnrollment)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceUnreadLifecycle(t *testing.T) {
	svc, _ := newNotificationFixture()

	_, err := svc.Send(context.Background(), "s1", "first", models.NotificationEnrollment)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), "s1", "second", models.NotificationGradeUpdate)
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.MarkRead(context.Background(), "n-1"))
	unread, err := svc.ListForStudent(context.Background(), "s1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Message)

	require.NoError(t, svc.MarkAllRead(context.Background(), "s1"))
	count, err = svc.UnreadCount(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNotificationServiceDelete(t *testing.T) {
	svc, store := newNotificationFixture()

	_, err := svc.Send(context.Background(), "s1", "first", models.NotificationEnrollment)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), "s1", "second", models.NotificationEnrollment)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "n-1"))
	assert.Len(t, store.rows, 1)

	err = svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteAllForStudent(context.Background(), "s1"))
	assert.Empty(t, store.rows)
}
