package services

import (
	"context"

	"github.com/yoockh/yooassist/internal/models"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/utils"
)

const (
	DefaultMusicHistory    = 10
	DefaultWhatsAppHistory = 50
	maxHistory             = 200
)

// HistoryService reads back the records task handlers and the dialogue leave behind.
// Every list is newest first.
type HistoryService interface {
	Music(ctx context.Context, userID string, limit int) ([]models.MusicHistory, error)
	WhatsApp(ctx context.Context, userID string, limit int) ([]models.WhatsAppTask, error)
	Personalization(ctx context.Context, userID string, limit int) ([]models.PersonalizationLog, error)
}

type historyService struct {
	music    mongorepo.MusicRepository
	whatsApp mongorepo.WhatsAppRepository
	personal mongorepo.PersonalizationLogRepository
}

func NewHistoryService(music mongorepo.MusicRepository, whatsApp mongorepo.WhatsAppRepository, personal mongorepo.PersonalizationLogRepository) HistoryService {
	return &historyService{music: music, whatsApp: whatsApp, personal: personal}
}

func historyLimit(limit, def int) int64 {
	if limit <= 0 || limit > maxHistory {
		return int64(def)
	}
	return int64(limit)
}

func (s *historyService) Music(ctx context.Context, userID string, limit int) ([]models.MusicHistory, error) {
	const op = "HistoryService.Music"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.music.Recent(ctx, userID, historyLimit(limit, DefaultMusicHistory))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list music history", err)
	}
	if out == nil {
		out = []models.MusicHistory{}
	}
	return out, nil
}

func (s *historyService) WhatsApp(ctx context.Context, userID string, limit int) ([]models.WhatsAppTask, error) {
	const op = "HistoryService.WhatsApp"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.whatsApp.Recent(ctx, userID, historyLimit(limit, DefaultWhatsAppHistory))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list whatsapp tasks", err)
	}
	if out == nil {
		out = []models.WhatsAppTask{}
	}
	return out, nil
}

func (s *historyService) Personalization(ctx context.Context, userID string, limit int) ([]models.PersonalizationLog, error) {
	const op = "HistoryService.Personalization"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.personal.Recent(ctx, userID, historyLimit(limit, DefaultMusicHistory))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list personalization logs", err)
	}
	if out == nil {
		out = []models.PersonalizationLog{}
	}
	return out, nil
}
