package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/embedding"
	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/repositories/mongo/mongotest"
)

func TestSearchSemantic_RanksRelevantMemoryFirst(t *testing.T) {
	facts, sem := mongotest.NewFacts(), mongotest.NewSemantic()
	svc := newMemory(facts, sem)
	ctx := context.Background()

	require.NoError(t, svc.Remember(ctx, "u1", "I like pizza"))
	require.NoError(t, svc.Remember(ctx, "u1", "I live in Boston"))
	require.NoError(t, svc.Remember(ctx, "u2", "I live in Paris"))

	got, err := svc.SearchSemantic(ctx, "u1", "where do I live", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "I live in Boston", got[0].Entry.Text)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestSearchSemantic_HonoursScanCapAndTopK(t *testing.T) {
	facts, sem := mongotest.NewFacts(), mongotest.NewSemantic()
	svc := NewMemoryService(facts, sem, embedding.NewHashingEmbedder(64), MemoryConfig{ScanCap: 3, TopK: 2}, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"old boston note", "a", "b", "c"} {
		require.NoError(t, sem.Insert(ctx, &models.SemanticMemoryEntry{
			UserID: "u1", Text: text, Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := svc.SearchSemantic(ctx, "u1", "boston", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, m := range got {
		assert.NotEqual(t, "old boston note", m.Entry.Text)
	}
}

func TestSearchSemantic_EmptyQuery(t *testing.T) {
	svc := newMemory(mongotest.NewFacts(), mongotest.NewSemantic())
	got, err := svc.SearchSemantic(context.Background(), "u1", "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveFact_IndexesDerivedText(t *testing.T) {
	facts, sem := mongotest.NewFacts(), mongotest.NewSemantic()
	svc := newMemory(facts, sem)

	f := &models.Fact{UserID: "u1", Type: models.FactTypeFact, Key: "location", Value: "Boston"}
	require.NoError(t, svc.SaveFact(context.Background(), f))

	assert.Equal(t, "location: Boston", f.DerivedText)
	require.Len(t, facts.Items, 1)
	require.Len(t, sem.Items, 1)
	assert.Equal(t, "location: Boston", sem.Items[0].Text)
}

func TestSaveFact_RequiresUser(t *testing.T) {
	svc := newMemory(mongotest.NewFacts(), mongotest.NewSemantic())
	err := svc.SaveFact(context.Background(), &models.Fact{Key: "x"})
	assert.Error(t, err)
}
