package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/yooassist/internal/cache"
	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/providers/llm"
)

const (
	TopicNewConversation = "new_conversation"
	TopicGeneral         = "general"
)

// Completer is the slice of the LLM chain the services need.
type Completer interface {
	Complete(ctx context.Context, msgs []llm.Message) llm.Result
}

// ChatContext is everything the prompt builder knows about the user for one message.
type ChatContext struct {
	UserID      string                    `json:"user_id"`
	Turns       []models.ConversationTurn `json:"turns"`
	Facts       []models.Fact             `json:"facts"`
	Memories    []models.ScoredMemory     `json:"memories"`
	Preferences models.Preferences        `json:"preferences"`
	Topic       string                    `json:"topic"`
}

type ContextService interface {
	Build(ctx context.Context, userID, sessionKey, query string) (*ChatContext, error)
}

type ContextConfig struct {
	HistoryTurns int
	TopK         int
}

type contextService struct {
	sessions cache.SessionStore
	memory   MemoryService
	prefs    PreferenceService
	labeler  Completer
	cfg      ContextConfig
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewContextService wires the aggregator. labeler may be nil, in which case topics
// come from the keyword table only.
func NewContextService(sessions cache.SessionStore, memory MemoryService, prefs PreferenceService, labeler Completer, cfg ContextConfig, log logrus.FieldLogger) ContextService {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 10
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &contextService{sessions: sessions, memory: memory, prefs: prefs, labeler: labeler, cfg: cfg, log: orQuiet(log), now: time.Now}
}

// Build fetches the four sources concurrently. A failing source is logged and left
// empty; Build itself only fails when ctx is cancelled.
func (s *contextService) Build(ctx context.Context, userID, sessionKey, query string) (*ChatContext, error) {
	out := &ChatContext{
		UserID:      userID,
		Turns:       []models.ConversationTurn{},
		Facts:       []models.Fact{},
		Memories:    []models.ScoredMemory{},
		Preferences: models.Preferences{}.WithDefaults(),
	}
	log := s.log.WithField("user_id", userID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		turns, err := s.sessions.Recent(gctx, sessionKey, s.cfg.HistoryTurns)
		if err != nil {
			log.WithError(err).Warn("context: session history unavailable")
			return nil
		}
		out.Turns = turns
		return nil
	})
	g.Go(func() error {
		facts, err := s.memory.RecentFacts(gctx, userID, s.cfg.TopK)
		if err != nil {
			log.WithError(err).Warn("context: facts unavailable")
			return nil
		}
		out.Facts = facts
		return nil
	})
	g.Go(func() error {
		mems, err := s.memory.SearchSemantic(gctx, userID, query, s.cfg.TopK)
		if err != nil {
			log.WithError(err).Warn("context: semantic recall unavailable")
			return nil
		}
		out.Memories = mems
		return nil
	})
	g.Go(func() error {
		p, err := s.prefs.Get(gctx, userID)
		if err != nil {
			log.WithError(err).Warn("context: preferences unavailable")
			return nil
		}
		out.Preferences = p
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Topic = s.resolveTopic(ctx, out.Turns, query)

	if err := s.sessions.SetWorkingContext(ctx, userID, models.WorkingContext{
		Topic:       out.Topic,
		LastMessage: query,
		UpdatedAt:   s.now().UTC(),
	}); err != nil {
		log.WithError(err).Debug("context: working context not saved")
	}
	return out, nil
}

func (s *contextService) resolveTopic(ctx context.Context, turns []models.ConversationTurn, query string) string {
	prior := turns
	if n := len(prior); n > 0 && prior[n-1].Role == models.RoleUser && prior[n-1].Text == query {
		prior = prior[:n-1]
	}
	if len(prior) == 0 {
		return TopicNewConversation
	}

	if s.labeler != nil {
		res := s.labeler.Complete(ctx, topicPrompt(prior, query))
		if !res.Err {
			if label, ok := CleanTopicLabel(res.Text); ok {
				return label
			}
		}
	}
	return KeywordTopic(query, prior)
}

func topicPrompt(turns []models.ConversationTurn, query string) []llm.Message {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("user: ")
	sb.WriteString(query)
	return []llm.Message{
		{Role: "system", Content: "Name the topic of this conversation in at most three lower-case words. Reply with the topic only."},
		{Role: "user", Content: sb.String()},
	}
}

// CleanTopicLabel normalizes an LLM topic label. Labels longer than three words are rejected.
func CleanTopicLabel(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	})
	if len(words) == 0 || len(words) > 3 {
		return "", false
	}
	return strings.Join(words, " "), true
}

var topicKeywords = []struct {
	topic string
	words []string
}{
	{"sports", []string{"football", "soccer", "basketball", "tennis", "game", "match", "team", "score"}},
	{"technology", []string{"computer", "software", "code", "programming", "app", "phone", "ai", "tech"}},
	{"food", []string{"food", "recipe", "cook", "restaurant", "eat", "dinner", "lunch", "pizza"}},
	{"travel", []string{"travel", "trip", "flight", "hotel", "vacation", "visit"}},
	{"work", []string{"work", "job", "meeting", "project", "deadline", "office", "boss"}},
	{"entertainment", []string{"movie", "music", "song", "show", "film", "book", "series"}},
	{"health", []string{"health", "doctor", "exercise", "workout", "sleep", "sick", "diet"}},
	{"shopping", []string{"buy", "shop", "shopping", "price", "order", "store"}},
}

// KeywordTopic picks the first topic whose keywords appear in the query, then in the
// recent turns, newest first.
func KeywordTopic(query string, turns []models.ConversationTurn) string {
	texts := []string{query}
	for i := len(turns) - 1; i >= 0; i-- {
		texts = append(texts, turns[i].Text)
	}
	for _, text := range texts {
		words := map[string]bool{}
		for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !(r >= 'a' && r <= 'z')
		}) {
			words[w] = true
		}
		for _, tk := range topicKeywords {
			for _, kw := range tk.words {
				if words[kw] {
					return tk.topic
				}
			}
		}
	}
	return TopicGeneral
}
