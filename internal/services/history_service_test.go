package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/repositories/mongo/mongotest"
	"github.com/yoockh/yooassist/internal/utils"
)

func TestHistory_MusicNewestFirstPerUser(t *testing.T) {
	music := mongotest.NewMusic()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, music.Insert(ctx, &models.MusicHistory{UserID: "u1", Title: "old", PlayedAt: base}))
	require.NoError(t, music.Insert(ctx, &models.MusicHistory{UserID: "u2", Title: "other", PlayedAt: base.Add(time.Hour)}))
	require.NoError(t, music.Insert(ctx, &models.MusicHistory{UserID: "u1", Title: "new", PlayedAt: base.Add(2 * time.Hour)}))

	svc := NewHistoryService(music, mongotest.NewWhatsApp(), mongotest.NewPersonalizationLogs())
	out, err := svc.Music(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].Title)
	assert.Equal(t, "old", out[1].Title)
}

func TestHistory_WhatsAppLimitAndEmpty(t *testing.T) {
	wa := mongotest.NewWhatsApp()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, wa.Insert(ctx, &models.WhatsAppTask{UserID: "u1", Phone: "+15550100", Status: "scheduled", Created: base.Add(time.Duration(i) * time.Minute)}))
	}

	svc := NewHistoryService(mongotest.NewMusic(), wa, mongotest.NewPersonalizationLogs())
	out, err := svc.WhatsApp(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.True(t, out[0].Created.After(out[1].Created))

	none, err := svc.WhatsApp(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestHistory_RequiresUserAndWrapsStoreErrors(t *testing.T) {
	logs := mongotest.NewPersonalizationLogs()
	svc := NewHistoryService(mongotest.NewMusic(), mongotest.NewWhatsApp(), logs)
	ctx := context.Background()

	_, err := svc.Personalization(ctx, "", 0)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	logs.Err = errors.New("mongo down")
	_, err = svc.Personalization(ctx, "u1", 0)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}
