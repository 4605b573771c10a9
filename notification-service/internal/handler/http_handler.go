package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/service"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/response"
)

// Handler handles HTTP requests for the notification service.
type Handler struct {
	svc service.NotificationService
}

func NewHandler(svc service.NotificationService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		notifications := api.Group("/notifications")
		{
			notifications.GET("/user/:userId", h.ListByUser)
			notifications.GET("/user/:userId/unread", h.ListUnread)
			notifications.GET("/user/:userId/unread-count", h.UnreadCount)
			notifications.PUT("/user/:userId/read-all", h.MarkAllAsRead)
			notifications.PUT("/:id/read", h.MarkAsRead)
			notifications.DELETE("/:id", h.Delete)
		}
	}
}

func (h *Handler) ListByUser(c *gin.Context) {
	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	items, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "failed to get notifications")
		return
	}

	response.Success(c, items)
}

func (h *Handler) ListUnread(c *gin.Context) {
	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	items, err := h.svc.ListUnread(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "failed to get unread notifications")
		return
	}

	response.Success(c, items)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "failed to count unread notifications")
		return
	}

	response.Success(c, gin.H{"user_id": userID, "unread_count": count})
}

// MarkAsRead handles PUT /api/v1/notifications/:id/read.
func (h *Handler) MarkAsRead(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	n, err := h.svc.MarkAsRead(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to mark notification as read")
		return
	}

	response.Success(c, n)
}

// MarkAllAsRead handles PUT /api/v1/notifications/user/:userId/read-all.
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	n, err := h.svc.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "failed to mark notifications as read")
		return
	}

	response.Success(c, gin.H{"user_id": userID, "marked": n})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete notification")
		return
	}

	response.Message(c, "notification deleted successfully")
}
