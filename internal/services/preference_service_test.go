package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/repositories/mongo/mongotest"
	"github.com/yoockh/yooassist/internal/utils"
)

func TestPreferences_DefaultsWhenMissing(t *testing.T) {
	svc := NewPreferenceService(mongotest.NewPreferences())
	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{}.WithDefaults(), p)
}

func TestPreferences_UpdateMergesFields(t *testing.T) {
	repo := mongotest.NewPreferences()
	svc := NewPreferenceService(repo)
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", models.Preferences{Tone: "playful"})
	require.NoError(t, err)
	p, err := svc.Update(ctx, "u1", models.Preferences{Nickname: "Cap", Formality: "Casual"})
	require.NoError(t, err)

	assert.Equal(t, "playful", p.Tone)
	assert.Equal(t, "Cap", p.Nickname)
	assert.Equal(t, "casual", p.Formality)
	assert.Equal(t, models.DefaultPronouns, p.Pronouns)
}

func TestPreferences_RejectsUnknownFormality(t *testing.T) {
	svc := NewPreferenceService(mongotest.NewPreferences())
	_, err := svc.Update(context.Background(), "u1", models.Preferences{Formality: "pirate"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestPreferences_RecordTopic(t *testing.T) {
	repo := mongotest.NewPreferences()
	svc := NewPreferenceService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RecordTopic(ctx, "u1", "food"))
	require.NoError(t, svc.RecordTopic(ctx, "u1", "food"))
	require.NoError(t, svc.RecordTopic(ctx, "u1", TopicNewConversation))

	p, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"food": 2}, p.Topics)
}

func TestSystemPrompt_IncludesPreferencesAndMemory(t *testing.T) {
	svc := NewPersonalizationService(mongotest.NewPersonalizationLogs(), NewPreferenceService(mongotest.NewPreferences()))
	prompt := svc.SystemPrompt(&ChatContext{
		Preferences: models.Preferences{Tone: "cheerful", Formality: "formal", Nickname: "Doc", Language: "es"},
		Facts:       []models.Fact{{DerivedText: "location: Boston"}},
		Memories:    []models.ScoredMemory{{Entry: models.SemanticMemoryEntry{Text: "User: I like jazz"}}},
		Topic:       "music",
	})

	for _, want := range []string{"be cheerful", "formal", "they/them", "Call the user Doc", `"es"`, "location: Boston", "I like jazz", "Current topic: music"} {
		assert.Contains(t, prompt, want)
	}
}
