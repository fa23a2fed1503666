package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/services"
	"github.com/yoockh/yooassist/internal/utils"
)

type PreferenceHandler struct {
	svc services.PreferenceService
}

func NewPreferenceHandler(svc services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

type PreferenceResponse struct {
	UserID      string             `json:"user_id"`
	Preferences models.Preferences `json:"preferences"`
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PreferenceResponse{UserID: userID, Preferences: p})
}

func (h *PreferenceHandler) Update(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	var req models.Preferences
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PreferenceHandler.Update", "invalid json body", err))
		return
	}
	p, err := h.svc.Update(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PreferenceResponse{UserID: userID, Preferences: p})
}
