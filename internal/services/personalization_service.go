package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yoockh/yooassist/internal/models"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/utils"
)

type PersonalizationService interface {
	SystemPrompt(cc *ChatContext) string
	Record(ctx context.Context, l *models.PersonalizationLog) error
}

type personalizationService struct {
	logs  mongorepo.PersonalizationLogRepository
	prefs PreferenceService
	now   func() time.Time
}

func NewPersonalizationService(logs mongorepo.PersonalizationLogRepository, prefs PreferenceService) PersonalizationService {
	return &personalizationService{logs: logs, prefs: prefs, now: time.Now}
}

const basePrompt = "You are a personal assistant. Answer concisely and use what you know about the user when it helps."

var formalityHints = map[string]string{
	"casual":  "Keep the conversation casual and relaxed.",
	"neutral": "Use a natural, balanced register.",
	"formal":  "Keep a formal and professional register.",
}

// SystemPrompt renders preferences and recalled memory into the system message.
func (s *personalizationService) SystemPrompt(cc *ChatContext) string {
	p := cc.Preferences.WithDefaults()

	var sb strings.Builder
	sb.WriteString(basePrompt)
	fmt.Fprintf(&sb, "\nTone: be %s.", p.Tone)
	if hint, ok := formalityHints[p.Formality]; ok {
		sb.WriteString(" " + hint)
	}
	fmt.Fprintf(&sb, "\nRefer to the user with %s pronouns.", p.Pronouns)
	if p.Nickname != "" {
		fmt.Fprintf(&sb, " Call the user %s.", p.Nickname)
	}
	if p.Language != "" && p.Language != models.DefaultLanguage {
		fmt.Fprintf(&sb, "\nReply in the language with code %q.", p.Language)
	}

	if len(cc.Facts) > 0 {
		sb.WriteString("\nKnown facts about the user:")
		for _, f := range cc.Facts {
			sb.WriteString("\n- " + f.DerivedText)
		}
	}
	if len(cc.Memories) > 0 {
		sb.WriteString("\nRelevant memories:")
		for _, m := range cc.Memories {
			sb.WriteString("\n- " + m.Entry.Text)
		}
	}
	if cc.Topic != "" && cc.Topic != TopicNewConversation {
		fmt.Fprintf(&sb, "\nCurrent topic: %s.", cc.Topic)
	}
	return sb.String()
}

// Record stores the personalization log and bumps the topic counter.
func (s *personalizationService) Record(ctx context.Context, l *models.PersonalizationLog) error {
	const op = "PersonalizationService.Record"

	if l == nil || l.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now().UTC()
	}
	if err := s.logs.Insert(ctx, l); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to insert personalization log", err)
	}
	return s.prefs.RecordTopic(ctx, l.UserID, l.Topic)
}
