package cache

import (
	"context"

	"github.com/yoockh/yooassist/internal/models"
)

// SessionStore is the short-term conversational memory: a capped, expiring turn log
// per session plus the transient working context and user state.
type SessionStore interface {
	Append(ctx context.Context, sessionKey string, turn models.ConversationTurn) error
	Recent(ctx context.Context, sessionKey string, n int) ([]models.ConversationTurn, error)
	Clear(ctx context.Context, sessionKey string) error

	SetWorkingContext(ctx context.Context, userID string, wc models.WorkingContext) error
	GetWorkingContext(ctx context.Context, userID string) (*models.WorkingContext, error)
	SetUserState(ctx context.Context, userID string, st models.UserState) error
	GetUserState(ctx context.Context, userID string) (*models.UserState, error)
}
