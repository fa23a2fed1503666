package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/providers/llm"
	"github.com/yoockh/yooassist/internal/repositories/mongo/mongotest"
)

type contextFixture struct {
	svc   ContextService
	facts *mongotest.Facts
	sem   *mongotest.Semantic
	prefs *mongotest.Preferences
	llm   *fakeLLM
}

func newContextFixture(t *testing.T, labeler *fakeLLM) (*contextFixture, context.Context) {
	f := &contextFixture{
		facts: mongotest.NewFacts(),
		sem:   mongotest.NewSemantic(),
		prefs: mongotest.NewPreferences(),
		llm:   labeler,
	}
	sessions := newSessions(t)
	var c Completer
	if labeler != nil {
		c = labeler
	}
	f.svc = NewContextService(sessions, newMemory(f.facts, f.sem), NewPreferenceService(f.prefs), c, ContextConfig{}, nil)

	ctx := context.Background()
	for _, turn := range []models.ConversationTurn{
		{Role: models.RoleUser, Text: "I want to cook pasta tonight"},
		{Role: models.RoleAssistant, Text: "Sounds good, what kind?"},
		{Role: models.RoleUser, Text: "something with tomatoes"},
	} {
		require.NoError(t, sessions.Append(ctx, "u1", turn))
	}
	return f, ctx
}

func TestContextBuild_IsIdempotent(t *testing.T) {
	f, ctx := newContextFixture(t, nil)
	mem := newMemory(f.facts, f.sem)
	require.NoError(t, mem.SaveFact(ctx, &models.Fact{UserID: "u1", Type: models.FactTypeFact, Key: "favorite_food", Value: "pasta"}))
	require.NoError(t, mem.Remember(ctx, "u1", "User: I like tomatoes"))

	first, err := f.svc.Build(ctx, "u1", "u1", "something with tomatoes")
	require.NoError(t, err)
	second, err := f.svc.Build(ctx, "u1", "u1", "something with tomatoes")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "food", first.Topic)
	assert.Len(t, first.Turns, 3)
	assert.NotEmpty(t, first.Memories)
	assert.Equal(t, models.DefaultTone, first.Preferences.Tone)
}

func TestContextBuild_NewConversation(t *testing.T) {
	f, ctx := newContextFixture(t, nil)

	cc, err := f.svc.Build(ctx, "u2", "u2", "hello there")
	require.NoError(t, err)
	assert.Equal(t, TopicNewConversation, cc.Topic)
	assert.Empty(t, cc.Turns)
}

func TestContextBuild_UsesLabelerThenKeywords(t *testing.T) {
	labeler := &fakeLLM{reply: llm.Result{Text: "Italian Cooking."}}
	f, ctx := newContextFixture(t, labeler)

	cc, err := f.svc.Build(ctx, "u1", "u1", "something with tomatoes")
	require.NoError(t, err)
	assert.Equal(t, "italian cooking", cc.Topic)
	assert.Equal(t, 1, labeler.count())

	labeler.reply = llm.Result{Text: "this is far too long a label"}
	cc, err = f.svc.Build(ctx, "u1", "u1", "something with tomatoes")
	require.NoError(t, err)
	assert.Equal(t, "food", cc.Topic)

	labeler.reply = llm.Result{Text: "⚠️ failure", Err: true}
	cc, err = f.svc.Build(ctx, "u1", "u1", "something with tomatoes")
	require.NoError(t, err)
	assert.Equal(t, "food", cc.Topic)
}

func TestContextBuild_SourceFailureLeavesItEmpty(t *testing.T) {
	f, ctx := newContextFixture(t, nil)
	f.facts.Err = errors.New("mongo down")
	f.prefs.Err = errors.New("mongo down")

	cc, err := f.svc.Build(ctx, "u1", "u1", "something with tomatoes")
	require.NoError(t, err)
	assert.Empty(t, cc.Facts)
	assert.Equal(t, models.DefaultTone, cc.Preferences.Tone)
	assert.Len(t, cc.Turns, 3)
}

func TestContextBuild_CancelledContext(t *testing.T) {
	f, _ := newContextFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Build(ctx, "u1", "u1", "hi")
	assert.Error(t, err)
}

func TestCleanTopicLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Travel", "travel", true},
		{"  Home Renovation! ", "home renovation", true},
		{"one two three four", "", false},
		{"...", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanTopicLabel(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestKeywordTopic(t *testing.T) {
	assert.Equal(t, "travel", KeywordTopic("booking a flight", nil))
	assert.Equal(t, "work", KeywordTopic("ok", []models.ConversationTurn{{Text: "the meeting ran late"}}))
	assert.Equal(t, TopicGeneral, KeywordTopic("hmm", nil))
}
