package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yoockh/yooassist/internal/models"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/utils"
)

type PreferenceService interface {
	// Get returns the stored preferences with defaults filled in.
	Get(ctx context.Context, userID string) (models.Preferences, error)
	Update(ctx context.Context, userID string, p models.Preferences) (models.Preferences, error)
	RecordTopic(ctx context.Context, userID, topic string) error
}

type preferenceService struct {
	prefs mongorepo.PreferenceRepository
}

func NewPreferenceService(prefs mongorepo.PreferenceRepository) PreferenceService {
	return &preferenceService{prefs: prefs}
}

var allowedFormality = map[string]bool{"casual": true, "neutral": true, "formal": true}

func (s *preferenceService) Get(ctx context.Context, userID string) (models.Preferences, error) {
	const op = "PreferenceService.Get"

	if userID == "" {
		return models.Preferences{}, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	doc, err := s.prefs.Get(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return models.Preferences{}.WithDefaults(), nil
	}
	if err != nil {
		return models.Preferences{}.WithDefaults(), utils.E(utils.CodeInternal, op, "failed to load preferences", err)
	}
	return doc.Preferences.WithDefaults(), nil
}

func (s *preferenceService) Update(ctx context.Context, userID string, p models.Preferences) (models.Preferences, error) {
	const op = "PreferenceService.Update"

	if userID == "" {
		return models.Preferences{}, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	p.Formality = strings.ToLower(strings.TrimSpace(p.Formality))
	if p.Formality != "" && !allowedFormality[p.Formality] {
		return models.Preferences{}, utils.E(utils.CodeInvalidArgument, op, "formality must be casual, neutral or formal", nil)
	}
	// topic counters are maintained by RecordTopic only
	p.Topics = nil

	if err := s.prefs.Upsert(ctx, userID, p); err != nil {
		return models.Preferences{}, utils.E(utils.CodeInternal, op, "failed to save preferences", err)
	}
	return s.Get(ctx, userID)
}

func (s *preferenceService) RecordTopic(ctx context.Context, userID, topic string) error {
	const op = "PreferenceService.RecordTopic"

	topic = strings.TrimSpace(topic)
	if userID == "" || topic == "" || topic == TopicNewConversation {
		return nil
	}
	if err := s.prefs.IncrementTopic(ctx, userID, topic); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to count topic", err)
	}
	return nil
}
