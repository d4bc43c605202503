package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/internal/service"
	"github.com/mohamedmahmoud95/scms-api/pkg/response"
)

type notificationStoreMock struct {
	rows []models.Notification
}

func (m *notificationStoreMock) Create(ctx context.Context, n *models.Notification) error {
	m.rows = append(m.rows, *n)
	return nil
}

func (m *notificationStoreMock) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	for _, n := range m.rows {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *notificationStoreMock) ListByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.rows {
		if n.RecipientID == recipientID {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *notificationStoreMock) ListUnreadByRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.rows {
		if n.RecipientID == recipientID && !n.Read {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *notificationStoreMock) CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range m.rows {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *notificationStoreMock) MarkRead(ctx context.Context, id string) error {
	for i, n := range m.rows {
		if n.ID == id {
			m.rows[i].Read = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *notificationStoreMock) MarkAllRead(ctx context.Context, recipientID string) error {
	for i, n := range m.rows {
		if n.RecipientID == recipientID {
			m.rows[i].Read = true
		}
	}
	return nil
}

func (m *notificationStoreMock) Delete(ctx context.Context, id string) error {
	for i, n := range m.rows {
		if n.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *notificationStoreMock) DeleteAllByRecipient(ctx context.Context, recipientID string) error {
	var kept []models.Notification
	for _, n := range m.rows {
		if n.RecipientID != recipientID {
			kept = append(kept, n)
		}
	}
	m.rows = kept
	return nil
}

func (m *notificationStoreMock) ListAll(ctx context.Context) ([]models.Notification, error) {
	return m.rows, nil
}

func newNotificationHandlerFixture() (*NotificationHandler, *notificationStoreMock) {
	store := &notificationStoreMock{rows: []models.Notification{
		{ID: "n1", Message: "Your enrollment in Databases has been approved!", RecipientID: "s1", Type: models.NotificationEnrollment},
		{ID: "n2", Message: "Grade updated for Databases: 95.5% (A)", RecipientID: "s1", Type: models.NotificationGradeUpdate, Read: true},
	}}
	students := &studentStoreMock{students: map[string]models.Student{"s1": {ID: "s1", Name: "Sara"}}}
	svc := service.NewNotificationService(store, students, zap.NewNop())
	return NewNotificationHandler(svc), store
}

func TestNotificationHandlerListForStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newNotificationHandlerFixture()

	c, w := newGinContext(http.MethodGet, "/students/s1/notifications", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.ListForStudent(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)
}

func TestNotificationHandlerListUnreadOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newNotificationHandlerFixture()

	c, w := newGinContext(http.MethodGet, "/students/s1/notifications?unread=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.ListForStudent(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newNotificationHandlerFixture()

	c, w := newGinContext(http.MethodGet, "/students/s1/notifications/unread-count", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.UnreadCount(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(1), data["unread"])
}

func TestNotificationHandlerMarkReadMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newNotificationHandlerFixture()

	c, w := newGinContext(http.MethodPut, "/notifications/ghost/read", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.MarkRead(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationHandlerDeleteAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newNotificationHandlerFixture()

	c, w := newGinContext(http.MethodDelete, "/students/s1/notifications", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.DeleteAllForStudent(c)
	// gin defers the status write for bodyless responses until the handler
	// chain unwinds, so flush it before inspecting the recorder.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, store.rows)
}
