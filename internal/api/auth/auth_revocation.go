package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

var (
	_ RevocationStore = (*CacheRevocationStore)(nil)
	_ RevocationStore = (*RedisRevocationStore)(nil)
)

// CacheRevocationStore keeps revocations in process memory.
type CacheRevocationStore struct {
	cache *cache.Cache
}

func NewCacheRevocationStore() *CacheRevocationStore {
	return &CacheRevocationStore{cache: cache.New(time.Hour, 10*time.Minute)}
}

func (s *CacheRevocationStore) Revoke(_ context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(jti, struct{}{}, ttl)
	return nil
}

func (s *CacheRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, found := s.cache.Get(jti)
	return found, nil
}

const revokedKeyPrefix = "todo:revoked:"

// RedisRevocationStore shares revocations between API instances.
type RedisRevocationStore struct {
	client redis.Cmdable
}

func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revocation: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}
