package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/services"
)

type HistoryHandler struct {
	svc services.HistoryService
}

func NewHistoryHandler(svc services.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// Music lists recently played songs, newest first.
func (h *HistoryHandler) Music(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	songs, err := h.svc.Music(c.Request.Context(), userID, queryLimit(c, 0, 200))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "songs": songs})
}

// WhatsApp lists scheduled and delivered messages with their status.
func (h *HistoryHandler) WhatsApp(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	tasks, err := h.svc.WhatsApp(c.Request.Context(), userID, queryLimit(c, 0, 200))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "tasks": tasks})
}

func (h *HistoryHandler) Personalization(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	logs, err := h.svc.Personalization(c.Request.Context(), userID, queryLimit(c, 0, 200))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "logs": logs})
}
