package kvstore

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisDocuments interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DocumentKey(name string) string
}

// RedisStore keeps documents as plain redis strings without expiry.
type RedisStore struct {
	client redisDocuments
}

// NewRedisStore wraps the shared redis client.
func NewRedisStore(client redisDocuments) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.client.DocumentKey(key))
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *RedisStore) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.client.DocumentKey(key), value, 0)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.client.DocumentKey(key))
}
