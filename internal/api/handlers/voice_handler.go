package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yooassist/internal/services"
	"github.com/yoockh/yooassist/internal/utils"
)

type VoiceHandler struct {
	svc services.VoiceService
}

func NewVoiceHandler(svc services.VoiceService) *VoiceHandler {
	return &VoiceHandler{svc: svc}
}

// Upload accepts multipart fields user_id, language and the audio file.
func (h *VoiceHandler) Upload(c *gin.Context) {
	const op = "VoiceHandler.Upload"

	userID := c.PostForm("user_id")
	if userID != "" {
		c.Set("user_id", userID)
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return
	}
	if fh.Size > services.MaxVoiceBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio is too large", nil))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "cannot read audio", err))
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(io.LimitReader(f, services.MaxVoiceBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "cannot read audio", err))
		return
	}

	res, err := h.svc.Process(c.Request.Context(), userID, c.PostForm("language"), fh.Header.Get("Content-Type"), audio)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VoiceHandler) History(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	clips, err := h.svc.History(c.Request.Context(), userID, int64(queryLimit(c, 20, 100)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "clips": clips})
}
