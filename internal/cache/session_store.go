package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yoockh/yooassist/internal/models"
)

const (
	WorkingContextTTL = time.Hour
	UserStateTTL      = 30 * time.Minute
)

type redisSessionStore struct {
	rdb      *redis.Client
	maxTurns int
	ttl      time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, maxTurns int, ttl time.Duration) SessionStore {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &redisSessionStore{rdb: rdb, maxTurns: maxTurns, ttl: ttl}
}

func stmKey(sessionKey string) string   { return "stm:" + sessionKey }
func contextKey(userID string) string   { return "ctx:" + userID }
func userStateKey(userID string) string { return "state:" + userID }

func (s *redisSessionStore) Append(ctx context.Context, sessionKey string, turn models.ConversationTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := stmKey(sessionKey)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n turns, oldest first.
func (s *redisSessionStore) Recent(ctx context.Context, sessionKey string, n int) ([]models.ConversationTurn, error) {
	if n <= 0 || n > s.maxTurns {
		n = s.maxTurns
	}
	raw, err := s.rdb.LRange(ctx, stmKey(sessionKey), int64(-n), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationTurn, 0, len(raw))
	for _, r := range raw {
		var t models.ConversationTurn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *redisSessionStore) Clear(ctx context.Context, sessionKey string) error {
	return s.rdb.Del(ctx, stmKey(sessionKey)).Err()
}

func (s *redisSessionStore) SetWorkingContext(ctx context.Context, userID string, wc models.WorkingContext) error {
	if wc.UpdatedAt.IsZero() {
		wc.UpdatedAt = time.Now().UTC()
	}
	return s.setJSON(ctx, contextKey(userID), wc, WorkingContextTTL)
}

func (s *redisSessionStore) GetWorkingContext(ctx context.Context, userID string) (*models.WorkingContext, error) {
	var wc models.WorkingContext
	hit, err := s.getJSON(ctx, contextKey(userID), &wc)
	if err != nil || !hit {
		return nil, err
	}
	return &wc, nil
}

func (s *redisSessionStore) SetUserState(ctx context.Context, userID string, st models.UserState) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	return s.setJSON(ctx, userStateKey(userID), st, UserStateTTL)
}

func (s *redisSessionStore) GetUserState(ctx context.Context, userID string) (*models.UserState, error) {
	var st models.UserState
	hit, err := s.getJSON(ctx, userStateKey(userID), &st)
	if err != nil || !hit {
		return nil, err
	}
	return &st, nil
}

func (s *redisSessionStore) setJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// getJSON reports a miss for absent keys and for payloads that no longer decode;
// the latter are removed.
func (s *redisSessionStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if json.Unmarshal(b, dst) != nil {
		_ = s.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}
