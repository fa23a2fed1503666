package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/services"
	"github.com/yoockh/yooassist/internal/utils"
)

type ChatHandler struct {
	dialogue services.DialogueService
}

func NewChatHandler(dialogue services.DialogueService) *ChatHandler {
	return &ChatHandler{dialogue: dialogue}
}

type ChatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type ChatResponse struct {
	UserID      string   `json:"user_id"`
	Response    string   `json:"response"`
	Provenance  string   `json:"provenance"`
	Suggestions []string `json:"suggestions"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "invalid json body", err))
		return
	}
	if req.UserID == "" {
		req.UserID = models.GuestUserID
	}
	c.Set("user_id", req.UserID)

	reply, err := h.dialogue.HandleMessage(c.Request.Context(), req.UserID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{
		UserID:      reply.UserID,
		Response:    reply.Text,
		Provenance:  reply.Provenance,
		Suggestions: reply.Suggestions,
	})
}
