package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAttemptStore shares limiter records across instances. Values are
// plain JSON under a prefixed key; expiry is delegated to Redis TTLs.
type RedisAttemptStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisAttemptStore(client redis.UniversalClient, prefix string) *RedisAttemptStore {
	if prefix == "" {
		prefix = "attempts"
	}
	return &RedisAttemptStore{client: client, prefix: prefix}
}

func (s *RedisAttemptStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisAttemptStore) Get(ctx context.Context, key string) (*AttemptRecord, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record AttemptRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode attempt record: %w", err)
	}
	return &record, nil
}

func (s *RedisAttemptStore) Put(ctx context.Context, key string, record *AttemptRecord, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode attempt record: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, s.key(key), raw, ttl).Err()
}

func (s *RedisAttemptStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
