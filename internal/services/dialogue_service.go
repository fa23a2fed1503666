package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/cache"
	"github.com/yoockh/yooassist/internal/events"
	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/providers/llm"
	"github.com/yoockh/yooassist/internal/tasks"
	"github.com/yoockh/yooassist/internal/utils"
)

const (
	PathTask = "task"
	PathLLM  = "llm"

	publishTimeout = 5 * time.Second
)

// Reply is the orchestrator's answer for one message. Text already carries the
// suggestion lines.
type Reply struct {
	UserID      string   `json:"user_id"`
	Text        string   `json:"response"`
	Provenance  string   `json:"provenance"`
	Suggestions []string `json:"suggestions"`
	TaskKind    string   `json:"task_kind,omitempty"`
	Topic       string   `json:"topic,omitempty"`
}

type TaskRunner interface {
	Run(ctx context.Context, userID string, d tasks.Dispatch) string
}

type ChatObserver interface {
	ObserveChat(path string, d time.Duration)
}

type DialogueService interface {
	HandleMessage(ctx context.Context, userID, text string) (*Reply, error)
}

type DialogueDeps struct {
	Users           UserService
	Sessions        cache.SessionStore
	Tasks           TaskRunner
	Context         ContextService
	Personalization PersonalizationService
	Memory          MemoryService
	LLM             Completer
	Events          events.Publisher
	Observer        ChatObserver
	Log             logrus.FieldLogger
}

type dialogueService struct {
	d   DialogueDeps
	log logrus.FieldLogger
	now func() time.Time
}

func NewDialogueService(d DialogueDeps) DialogueService {
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	return &dialogueService{d: d, log: orQuiet(d.Log), now: time.Now}
}

func (s *dialogueService) HandleMessage(ctx context.Context, userID, text string) (*Reply, error) {
	const op = "DialogueService.HandleMessage"

	start := s.now()
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = models.GuestUserID
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	log := s.log.WithField("user_id", userID)
	sessionKey := userID

	if s.d.Users != nil {
		if err := s.d.Users.Touch(ctx, userID); err != nil {
			log.WithError(err).Debug("user activity not recorded")
		}
	}
	s.appendTurn(ctx, log, sessionKey, models.RoleUser, text)

	if disp, ok := tasks.Classify(text); ok && s.d.Tasks != nil {
		out := s.d.Tasks.Run(ctx, userID, disp)
		reply := &Reply{
			UserID:      userID,
			Text:        out,
			Provenance:  "task:" + string(disp.Kind),
			Suggestions: []string{},
			TaskKind:    string(disp.Kind),
		}
		s.appendTurn(ctx, log, sessionKey, models.RoleAssistant, out)
		if err := s.d.Sessions.SetUserState(ctx, userID, models.UserState{
			LastTask:   string(disp.Kind),
			LastIntent: "task",
			UpdatedAt:  s.now().UTC(),
		}); err != nil {
			log.WithError(err).Debug("user state not saved")
		}
		s.publish(ctx, log, userID, sessionKey, text, reply)
		s.observe(PathTask, start)
		return reply, nil
	}

	cc, err := s.d.Context.Build(ctx, userID, sessionKey, text)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "request cancelled", err)
	}

	msgs := []llm.Message{{Role: "system", Content: s.d.Personalization.SystemPrompt(cc)}}
	msgs = append(msgs, historyMessages(cc.Turns, text)...)

	res := s.d.LLM.Complete(ctx, msgs)
	s.appendTurn(ctx, log, sessionKey, models.RoleAssistant, res.Text)

	s.learn(ctx, log, userID, text, res.Text)

	if err := s.d.Personalization.Record(ctx, &models.PersonalizationLog{
		UserID:             userID,
		Message:            text,
		Response:           res.Text,
		Topic:              cc.Topic,
		PreferencesApplied: cc.Preferences,
		Provenance:         res.Provenance,
	}); err != nil {
		log.WithError(err).Debug("personalization log not stored")
	}

	suggestions := []string{}
	if !res.Err {
		suggestions = Suggest(text, res.Text, cc.Facts)
	}
	reply := &Reply{
		UserID:      userID,
		Text:        WithSuggestions(res.Text, suggestions),
		Provenance:  res.Provenance,
		Suggestions: suggestions,
		Topic:       cc.Topic,
	}
	if err := s.d.Sessions.SetUserState(ctx, userID, models.UserState{LastIntent: "chat", UpdatedAt: s.now().UTC()}); err != nil {
		log.WithError(err).Debug("user state not saved")
	}

	s.publish(ctx, log, userID, sessionKey, text, reply)
	s.observe(PathLLM, start)
	return reply, nil
}

// historyMessages turns the session buffer into chat messages and makes sure the
// current message is last.
func historyMessages(turns []models.ConversationTurn, current string) []llm.Message {
	out := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		if t.Role == models.RoleSystem || strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, llm.Message{Role: string(t.Role), Content: t.Text})
	}
	if n := len(out); n == 0 || out[n-1].Role != "user" || out[n-1].Content != current {
		out = append(out, llm.Message{Role: "user", Content: current})
	}
	return out
}

func (s *dialogueService) appendTurn(ctx context.Context, log logrus.FieldLogger, sessionKey string, role models.Role, text string) {
	if err := s.d.Sessions.Append(ctx, sessionKey, models.ConversationTurn{Role: role, Text: text, Timestamp: s.now().UTC()}); err != nil {
		log.WithError(err).WithField("role", role).Warn("turn not persisted to session")
	}
}

// learn stores extracted facts and the raw exchange in long-term memory.
func (s *dialogueService) learn(ctx context.Context, log logrus.FieldLogger, userID, userText, replyText string) {
	if s.d.Memory == nil {
		return
	}
	facts := ExtractFacts(userID, userText, "user")
	facts = append(facts, ExtractFacts(userID, replyText, "assistant")...)
	for i := range facts {
		if err := s.d.Memory.SaveFact(ctx, &facts[i]); err != nil {
			log.WithError(err).WithField("key", facts[i].Key).Warn("fact not saved")
		}
	}
	if err := s.d.Memory.Remember(ctx, userID, "User: "+userText+"\nAssistant: "+replyText); err != nil {
		log.WithError(err).Debug("interaction not indexed")
	}
}

func (s *dialogueService) publish(ctx context.Context, log logrus.FieldLogger, userID, sessionKey, text string, r *Reply) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := models.TurnEvent{
		EventID:     uuid.NewString(),
		UserID:      userID,
		SessionKey:  sessionKey,
		UserText:    text,
		Reply:       r.Text,
		Provenance:  r.Provenance,
		Topic:       r.Topic,
		TaskKind:    r.TaskKind,
		Suggestions: r.Suggestions,
		Timestamp:   s.now().UTC(),
	}
	if err := s.d.Events.Publish(pctx, ev); err != nil {
		log.WithError(err).Warn("turn event not published")
	}
}

func (s *dialogueService) observe(path string, start time.Time) {
	if s.d.Observer != nil {
		s.d.Observer.ObserveChat(path, s.now().Sub(start))
	}
}
