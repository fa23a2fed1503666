package config

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient accepts either host:port or a redis:// / rediss:// URL.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	val := strings.TrimSpace(cfg.Addr)
	if val == "" {
		return nil, errors.New("redis address is not set")
	}

	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		opt, err := redis.ParseURL(val)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: val}), nil
}

func InitRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
