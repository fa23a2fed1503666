package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/yooassist/internal/embedding"
	"github.com/yoockh/yooassist/internal/models"
	pgrepo "github.com/yoockh/yooassist/internal/repositories/postgres"
	"github.com/yoockh/yooassist/internal/utils"
)

// ConversationService is the durable archive of answered turns.
type ConversationService interface {
	// Archive writes the user and assistant rows for ev. Row ids derive from the
	// event id, so a redelivered event writes nothing new.
	Archive(ctx context.Context, ev models.TurnEvent) error
	ListBySession(ctx context.Context, userID, sessionKey string, limit int) ([]models.ConversationLog, error)
	// Recent lists the user's newest rows across all sessions.
	Recent(ctx context.Context, userID string, limit int) ([]models.ConversationLog, error)
}

type conversationService struct {
	convos   pgrepo.ConversationRepo
	embedder embedding.Embedder
	log      logrus.FieldLogger
}

func NewConversationService(convos pgrepo.ConversationRepo, embedder embedding.Embedder, log logrus.FieldLogger) ConversationService {
	return &conversationService{convos: convos, embedder: embedder, log: orQuiet(log)}
}

func (s *conversationService) Archive(ctx context.Context, ev models.TurnEvent) error {
	const op = "ConversationService.Archive"

	if ev.EventID == "" || ev.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "event_id and user_id are required", nil)
	}
	sessionKey := ev.SessionKey
	if sessionKey == "" {
		sessionKey = ev.UserID
	}

	metadata, err := json.Marshal(map[string]string{"topic": ev.Topic, "task_kind": ev.TaskKind})
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode metadata", err)
	}

	base := uuidFromEvent(ev.EventID)
	rows := []models.ConversationLog{
		{
			ID:         uuid.NewSHA1(base, []byte("user")).String(),
			UserID:     ev.UserID,
			SessionKey: sessionKey,
			Role:       string(models.RoleUser),
			Content:    ev.UserText,
			Timestamp:  ev.Timestamp.UTC(),
			Metadata:   datatypes.JSON(metadata),
		},
		{
			ID:          uuid.NewSHA1(base, []byte("assistant")).String(),
			UserID:      ev.UserID,
			SessionKey:  sessionKey,
			Role:        string(models.RoleAssistant),
			Content:     ev.Reply,
			Provenance:  ev.Provenance,
			Suggestions: pq.StringArray(ev.Suggestions),
			Timestamp:   ev.Timestamp.UTC(),
			Metadata:    datatypes.JSON(metadata),
		},
	}

	if s.embedder != nil {
		for i := range rows {
			vec, err := s.embedder.Embed(ctx, rows[i].Content)
			if err != nil {
				s.log.WithError(err).WithField("event_id", ev.EventID).Debug("archive row stored without embedding")
				continue
			}
			rows[i].Embedding = pgvector.NewVector(vec)
		}
	}

	if err := s.convos.InsertBatch(ctx, rows); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to insert conversation logs", err)
	}
	return nil
}

// uuidFromEvent accepts uuid event ids as-is and hashes anything else into one.
func uuidFromEvent(eventID string) uuid.UUID {
	if id, err := uuid.Parse(eventID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(eventID))
}

func (s *conversationService) ListBySession(ctx context.Context, userID, sessionKey string, limit int) ([]models.ConversationLog, error) {
	const op = "ConversationService.ListBySession"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if sessionKey == "" {
		sessionKey = userID
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.convos.ListBySession(ctx, userID, sessionKey, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, nil
}

func (s *conversationService) Recent(ctx context.Context, userID string, limit int) ([]models.ConversationLog, error) {
	const op = "ConversationService.Recent"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.convos.LatestN(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, nil
}
