package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// refreshTokenKey is the fixed durable-storage key for the operator's
// refresh token.
const refreshTokenKey = "console:refresh_token"

// RedisRefreshStore keeps the refresh token in Redis so a console restart
// can resume the session without re-entering credentials.
type RedisRefreshStore struct {
	rdb *redis.Client
	key string
}

func NewRedisRefreshStore(rdb *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{rdb: rdb, key: refreshTokenKey}
}

func (s *RedisRefreshStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	// No TTL: the upstream decides when a refresh token stops working.
	if err := s.rdb.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("session: persist refresh token: %w", err)
	}
	return nil
}

func (s *RedisRefreshStore) Load(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: load refresh token: %w", err)
	}
	return v, nil
}

func (s *RedisRefreshStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("session: clear refresh token: %w", err)
	}
	return nil
}
