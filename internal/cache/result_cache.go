package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// ===============================
// RESULT CACHE
// ===============================

// ResultCache stores JSON-encoded query results in a backend.
// Backend failures are logged and treated as misses, so a nil or broken
// backend only costs performance.
type ResultCache struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewResultCache wraps a backend; backend may be nil to disable caching
func NewResultCache(backend Cache, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{
		cache:  backend,
		ttl:    ttl,
		logger: logger,
	}
}

// Enabled reports whether a backend is attached
func (rc *ResultCache) Enabled() bool {
	return rc != nil && rc.cache != nil
}

// Backend returns the wrapped backend, or nil when caching is disabled
func (rc *ResultCache) Backend() Cache {
	if rc == nil {
		return nil
	}
	return rc.cache
}

// Get decodes the cached value for key into dest and reports whether it was found
func (rc *ResultCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !rc.Enabled() {
		return false
	}

	raw, found := rc.cache.Get(ctx, key)
	if !found {
		return false
	}

	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		rc.logger.Warn("Unexpected cached value type", zap.String("key", key))
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		rc.logger.Warn("Failed to decode cached value",
			zap.String("key", key),
			zap.Error(err))
		rc.Delete(ctx, key)
		return false
	}

	return true
}

// Set encodes value and stores it; a non-positive ttl uses the configured default
func (rc *ResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !rc.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		rc.logger.Warn("Failed to encode value for cache",
			zap.String("key", key),
			zap.Error(err))
		return
	}

	if ttl <= 0 {
		ttl = rc.ttl
	}

	if err := rc.cache.Set(ctx, key, data, ttl); err != nil {
		rc.logger.Warn("Failed to cache result",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Delete removes exact keys
func (rc *ResultCache) Delete(ctx context.Context, keys ...string) {
	if !rc.Enabled() {
		return
	}

	for _, key := range keys {
		if err := rc.cache.Delete(ctx, key); err != nil {
			rc.logger.Warn("Failed to delete cache key",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// DeletePattern removes every key matching pattern
func (rc *ResultCache) DeletePattern(ctx context.Context, pattern string) {
	if !rc.Enabled() {
		return
	}

	if err := rc.cache.DeletePattern(ctx, pattern); err != nil {
		rc.logger.Warn("Failed to delete cache pattern",
			zap.String("pattern", pattern),
			zap.Error(err))
	}
}

// Has reports whether an unexpired entry exists for key
func (rc *ResultCache) Has(ctx context.Context, key string) bool {
	return rc.Enabled() && rc.cache.Exists(ctx, key)
}

// CacheResult returns the cached value for key or computes, caches and returns fn's result.
// Errors from fn are returned as-is and never cached.
func CacheResult[T any](ctx context.Context, rc *ResultCache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var cached T
	if rc.Get(ctx, key, &cached) {
		rc.logger.Debug("Cache hit", zap.String("key", key))
		return cached, nil
	}

	result, err := fn()
	if err != nil {
		return result, err
	}

	rc.Set(ctx, key, result, ttl)
	return result, nil
}
