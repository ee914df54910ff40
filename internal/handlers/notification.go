// internal/handlers/notification.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /notifications?unread=true
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.List(c.Request.Context(), accountID, unreadOnly, params)
	if err != nil {
		respondError(c, err, "notification")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(notifications, total, params))
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	accountID, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), accountID, id); err != nil {
		respondError(c, err, "notification")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"id":   id,
		"read": true,
	})
}
