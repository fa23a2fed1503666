package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/services"
	"github.com/yoockh/yooassist/internal/utils"
)

type ConversationHandler struct {
	svc services.ConversationService
}

// NewConversationHandler accepts a nil service; the archive is then reported unavailable.
func NewConversationHandler(svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// List returns archived turns oldest first. ?session=<key> narrows to one session
// (default: the user's own), ?session=all spans every session.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	if h.svc == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "ConversationHandler.List", "conversation archive is disabled", nil))
		return
	}

	session := c.Query("session")
	limit := queryLimit(c, 50, 200)

	var (
		rows []models.ConversationLog
		err  error
	)
	if session == "all" {
		rows, err = h.svc.Recent(c.Request.Context(), userID, limit)
	} else {
		rows, err = h.svc.ListBySession(c.Request.Context(), userID, session, limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	// repo returns newest first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	if session == "" {
		session = userID
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"session":       session,
		"conversations": rows,
	})
}
