package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/greenscope/backend/internal/domain"
	"go.uber.org/zap"
)

// RedisCache stores cache entries in Redis so several API instances share them
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to the Redis instance at redisURL and verifies it with a ping
func NewRedisCache(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisCache, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))

	return &RedisCache{client: client, logger: logger}, nil
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return value, nil
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info("closing redis connection")
	return c.client.Close()
}
