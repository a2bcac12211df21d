// Package cache stores search responses and source checks between analyses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

// KeyPrefix namespaces every key this program writes
const KeyPrefix = "claimcheck:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Key builds a cache key for a namespace ("search", "validate") from its inputs
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return KeyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}

// New creates the cache selected by cfg.Backend. The "none" backend returns nil;
// callers treat a nil Cache as disabled.
func New(cfg model.CacheConfig) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryCache(ttl, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, ttl), nil
	case "layered":
		return NewLayeredCache(ttl, cfg.Dir, ttl), nil
	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis, none)", cfg.Backend)
	}
}
