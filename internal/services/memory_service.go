package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/embedding"
	"github.com/yoockh/yooassist/internal/models"
	mongorepo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/utils"
)

const (
	DefaultTopK            = 5
	DefaultSemanticScanCap = 200
)

// MemoryService owns long-term memory: immutable facts and the semantic index.
type MemoryService interface {
	// SaveFact stores the fact and indexes its derived text for semantic recall.
	SaveFact(ctx context.Context, f *models.Fact) error
	// Remember indexes free text (e.g. a raw interaction) without creating a fact.
	Remember(ctx context.Context, userID, text string) error
	RecentFacts(ctx context.Context, userID string, k int) ([]models.Fact, error)
	SearchSemantic(ctx context.Context, userID, query string, k int) ([]models.ScoredMemory, error)
}

type MemoryConfig struct {
	TopK    int
	ScanCap int
}

type memoryService struct {
	facts    mongorepo.FactRepository
	semantic mongorepo.SemanticRepository
	embedder embedding.Embedder
	cfg      MemoryConfig
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewMemoryService(facts mongorepo.FactRepository, semantic mongorepo.SemanticRepository, embedder embedding.Embedder, cfg MemoryConfig, log logrus.FieldLogger) MemoryService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ScanCap <= 0 {
		cfg.ScanCap = DefaultSemanticScanCap
	}
	return &memoryService{facts: facts, semantic: semantic, embedder: embedder, cfg: cfg, log: orQuiet(log), now: time.Now}
}

func (s *memoryService) SaveFact(ctx context.Context, f *models.Fact) error {
	const op = "MemoryService.SaveFact"

	if f == nil || f.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if f.DerivedText == "" && f.Key != "" {
		f.DerivedText = f.Key + ": " + f.Value
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = s.now().UTC()
	}
	if err := s.facts.Insert(ctx, f); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save fact", err)
	}
	if err := s.Remember(ctx, f.UserID, f.DerivedText); err != nil {
		// the fact itself is stored; recall just won't find it
		s.log.WithError(err).WithField("user_id", f.UserID).Warn("semantic index insert failed")
	}
	return nil
}

func (s *memoryService) Remember(ctx context.Context, userID, text string) error {
	const op = "MemoryService.Remember"

	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and text are required", nil)
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to embed text", err)
	}
	entry := &models.SemanticMemoryEntry{UserID: userID, Text: text, Embedding: vec, Timestamp: s.now().UTC()}
	if err := s.semantic.Insert(ctx, entry); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to index memory", err)
	}
	return nil
}

func (s *memoryService) RecentFacts(ctx context.Context, userID string, k int) ([]models.Fact, error) {
	const op = "MemoryService.RecentFacts"

	if k <= 0 {
		k = s.cfg.TopK
	}
	out, err := s.facts.Recent(ctx, userID, int64(k))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load facts", err)
	}
	return out, nil
}

// SearchSemantic scores at most ScanCap of the user's newest entries against query.
// Equal scores keep recency order.
func (s *memoryService) SearchSemantic(ctx context.Context, userID, query string, k int) ([]models.ScoredMemory, error) {
	const op = "MemoryService.SearchSemantic"

	if k <= 0 {
		k = s.cfg.TopK
	}
	if strings.TrimSpace(query) == "" {
		return []models.ScoredMemory{}, nil
	}

	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed query", err)
	}
	entries, err := s.semantic.Latest(ctx, userID, int64(s.cfg.ScanCap))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load memories", err)
	}

	scored := make([]models.ScoredMemory, 0, len(entries))
	for _, e := range entries {
		scored = append(scored, models.ScoredMemory{Entry: e, Score: embedding.Cosine(qv, e.Embedding)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func orQuiet(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
