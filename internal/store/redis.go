package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements DurableStore on Redis. Both processes address it by
// the same key scheme; namespaces cost nothing to create.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(namespace, key string) string {
	return fmt.Sprintf("mirror:%s:%s", namespace, key)
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store get %s/%s: %w", namespace, key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Put(ctx context.Context, namespace, key, value string) error {
	if err := s.client.Set(ctx, s.key(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("store put %s/%s: %w", namespace, key, err)
	}
	return nil
}
