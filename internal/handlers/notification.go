package handlers

import (
	"net/http"

	"github.com/Soumabha100/X-clone-backend/internal/middleware"
	"github.com/Soumabha100/X-clone-backend/internal/services"
	"github.com/Soumabha100/X-clone-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *logger.Logger
}

func NewNotificationHandler(notificationService *services.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List 返回通知并全部标记为已读，响应中保留标记前的状态
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notificationService.ListAndMarkRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Notifications fetched successfully", gin.H{"notifications": notifications})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Unread count fetched successfully", gin.H{"count": count})
}

func (h *NotificationHandler) Clear(c *gin.Context) {
	deleted, err := h.notificationService.Clear(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Notifications cleared successfully", gin.H{"deleted": deleted})
}
