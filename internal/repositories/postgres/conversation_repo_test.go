package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/yooassist/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ConversationLog{}))
	return db
}

func logRow(id, user, role, content string, ts time.Time) models.ConversationLog {
	return models.ConversationLog{
		ID:          id,
		UserID:      user,
		SessionKey:  user,
		Role:        role,
		Content:     content,
		Embedding:   pgvector.NewVector([]float32{0.1, 0.2, 0.3}),
		Suggestions: []string{"try this"},
		Timestamp:   ts,
		Metadata:    []byte(`{"topic":"food"}`),
	}
}

func TestConversationRepo_InsertAndList(t *testing.T) {
	repo := NewConversationRepo(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertBatch(ctx, []models.ConversationLog{
		logRow("00000000-0000-0000-0000-000000000001", "u1", "user", "hi", base),
		logRow("00000000-0000-0000-0000-000000000002", "u1", "assistant", "hello", base.Add(time.Second)),
		logRow("00000000-0000-0000-0000-000000000003", "u2", "user", "other", base),
	}))

	rows, err := repo.ListBySession(ctx, "u1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "hello", rows[0].Content)
	assert.Equal(t, "hi", rows[1].Content)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, rows[0].Embedding.Slice())

	latest, err := repo.LatestN(ctx, "u2", 5)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "other", latest[0].Content)
}

func TestConversationRepo_InsertBatchIsIdempotent(t *testing.T) {
	repo := NewConversationRepo(setupTestDB(t))
	ctx := context.Background()
	row := logRow("00000000-0000-0000-0000-00000000000a", "u1", "user", "hi", time.Now().UTC())

	require.NoError(t, repo.InsertBatch(ctx, []models.ConversationLog{row}))
	require.NoError(t, repo.InsertBatch(ctx, []models.ConversationLog{row}))

	rows, err := repo.ListBySession(ctx, "u1", "u1", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, repo.InsertBatch(ctx, nil))
}
