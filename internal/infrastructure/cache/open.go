package cache

import (
	"context"
	"fmt"

	"github.com/greenscope/backend/internal/domain"
	"go.uber.org/zap"
)

// Backend names accepted by Open
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeNone   = "none"
)

// Store is a cache backend that owns background resources
type Store interface {
	domain.CacheRepository
	Close() error
}

// Open builds the cache backend named by cacheType. TypeNone returns a nil
// Store, which callers treat as caching disabled.
func Open(ctx context.Context, cacheType, redisURL string, logger *zap.Logger) (Store, error) {
	switch cacheType {
	case TypeMemory, "":
		return NewMemoryCache(0), nil
	case TypeRedis:
		store, err := NewRedisCache(ctx, redisURL, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cacheType)
	}
}
