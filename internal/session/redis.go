package session

import (
	"context"
	"errors"

	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore — реализация Store поверх Redis.
// Состояние сессии лежит в hash `session:{id}`, TTL обновляется
// при каждой записи.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	v, err := s.client.HGet(ctx, s.key(sessionID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	k := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	pipe.Expire(ctx, k, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Pop(ctx context.Context, sessionID, key string) ([]byte, error) {
	k := s.key(sessionID)
	v, err := s.client.HGet(ctx, k, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.client.HDel(ctx, k, key).Err(); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisStore) key(sessionID string) string {
	return "session:" + sessionID
}
