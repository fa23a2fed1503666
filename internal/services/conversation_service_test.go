package services

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/yooassist/internal/embedding"
	"github.com/yoockh/yooassist/internal/models"
	pgrepo "github.com/yoockh/yooassist/internal/repositories/postgres"
	"github.com/yoockh/yooassist/internal/utils"
)

func newArchive(t *testing.T) ConversationService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ConversationLog{}))
	return NewConversationService(pgrepo.NewConversationRepo(db), embedding.NewHashingEmbedder(8), nil)
}

func TestArchive_WritesBothRolesOnce(t *testing.T) {
	svc := newArchive(t)
	ctx := context.Background()
	ev := models.TurnEvent{
		EventID:     "evt-1",
		UserID:      "u1",
		UserText:    "what's 2+2",
		Reply:       "🧮 Calculation: 2+2 = 4",
		Provenance:  "task:calculator",
		TaskKind:    "calculator",
		Suggestions: []string{"a"},
		Timestamp:   time.Now().UTC(),
	}

	require.NoError(t, svc.Archive(ctx, ev))
	require.NoError(t, svc.Archive(ctx, ev))

	rows, err := svc.ListBySession(ctx, "u1", "", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	roles := []string{rows[0].Role, rows[1].Role}
	assert.ElementsMatch(t, []string{"user", "assistant"}, roles)

	recent, err := svc.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestArchive_Validates(t *testing.T) {
	svc := newArchive(t)
	err := svc.Archive(context.Background(), models.TurnEvent{UserID: "u1"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.ListBySession(context.Background(), "", "", 10)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
