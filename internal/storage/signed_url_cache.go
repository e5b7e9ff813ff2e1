package storage

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// cachedStore decorates an ObjectStore with a Redis cache for presigned
// links, so listing endpoints do not re-sign every key on every request.
// Cache TTL must stay below the presign TTL; entries are never served past
// their signature lifetime.
type cachedStore struct {
	inner    ObjectStore
	client   *redis.Client
	cacheTTL time.Duration
}

// WithURLCache wraps store with a presign cache. A nil client disables
// caching and returns the store unchanged.
func WithURLCache(store ObjectStore, client *redis.Client, cacheTTL time.Duration) ObjectStore {
	if client == nil {
		return store
	}
	return &cachedStore{inner: store, client: client, cacheTTL: cacheTTL}
}

func (s *cachedStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return s.inner.Put(ctx, key, body, size, contentType)
}

func (s *cachedStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	cacheKey := "presign:" + key
	if cached, err := s.client.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		return cached, nil
	}

	signed, err := s.inner.PresignGet(ctx, key, ttl)
	if err != nil {
		return "", err
	}
	// Cache misses on SET are acceptable; next read signs again.
	_ = s.client.Set(ctx, cacheKey, signed, s.cacheTTL).Err()
	return signed, nil
}
