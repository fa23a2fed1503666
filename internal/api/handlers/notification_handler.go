package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/notify"
)

type NotificationHandler struct {
	hub *notify.Hub
}

func NewNotificationHandler(hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Drain hands back and clears the user's pending notifications.
func (h *NotificationHandler) Drain(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "notifications": h.hub.Drain(userID)})
}
