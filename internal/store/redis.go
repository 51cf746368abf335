package store

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const fingerprintSetKey = "kyc:fingerprints"

// RedisStore shares the fingerprint set across processes via a Redis set.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: fingerprintSetKey}
}

// Contains reports whether the fingerprint is in the shared set.
func (s *RedisStore) Contains(ctx context.Context, fingerprint string) (bool, error) {
	return s.client.SIsMember(ctx, s.key, fingerprint).Result()
}

// Add records a fingerprint in the shared set.
func (s *RedisStore) Add(ctx context.Context, fingerprint string) error {
	return s.client.SAdd(ctx, s.key, fingerprint).Err()
}
