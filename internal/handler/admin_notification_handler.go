package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohamedmahmoud95/scms-api/internal/service"
	appErrors "github.com/mohamedmahmoud95/scms-api/pkg/errors"
	"github.com/mohamedmahmoud95/scms-api/pkg/response"
)

// AdminNotificationHandler exposes the administrator mailbox endpoints. The
// mailbox is always scoped to the authenticated admin.
type AdminNotificationHandler struct {
	notifications *service.AdminNotificationService
}

// NewAdminNotificationHandler constructs AdminNotificationHandler.
func NewAdminNotificationHandler(notifications *service.AdminNotificationService) *AdminNotificationHandler {
	return &AdminNotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List the current admin's notifications
// @Tags AdminNotifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /admin/notifications [get]
func (h *AdminNotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifications.ListForAdmin(c.Request.Context(), claims.UserID, unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// UnreadCount godoc
// @Summary Count the current admin's unread notifications
// @Tags AdminNotifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/notifications/unread-count [get]
func (h *AdminNotificationHandler) UnreadCount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}

// MarkRead godoc
// @Summary Mark an admin notification as read
// @Tags AdminNotifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /admin/notifications/{id}/read [put]
func (h *AdminNotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark all of the current admin's notifications as read
// @Tags AdminNotifications
// @Produce json
// @Success 204
// @Router /admin/notifications/read-all [put]
func (h *AdminNotificationHandler) MarkAllRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.notifications.MarkAllRead(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAll godoc
// @Summary List every admin notification
// @Tags AdminNotifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/notifications/all [get]
func (h *AdminNotificationHandler) ListAll(c *gin.Context) {
	notifications, err := h.notifications.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}
