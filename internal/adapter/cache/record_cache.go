package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "profile-service/internal/domain/profile"
)

// RecordCache defines the interface for profile record caching operations.
type RecordCache interface {
	// Get retrieves a record from cache by ID.
	// Returns nil if the record is not cached.
	Get(ctx context.Context, id string) (*domain.Record, error)

	// Set stores a record in cache with the configured TTL.
	Set(ctx context.Context, r *domain.Record) error

	// Delete removes a record from cache by ID.
	Delete(ctx context.Context, id string) error
}

// RedisRecordCache implements RecordCache using Redis as the backing store.
type RedisRecordCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisRecordCache creates a new Redis-backed record cache.
func NewRedisRecordCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisRecordCache {
	return &RedisRecordCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// CacheKey returns the Redis key of a record id.
func CacheKey(id string) string {
	return "profile:" + id
}

// Get retrieves a record from Redis cache.
func (c *RedisRecordCache) Get(ctx context.Context, id string) (*domain.Record, error) {
	data, err := c.client.Get(ctx, CacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	var r domain.Record
	if err := json.Unmarshal(data, &r); err != nil {
		c.log.Error("failed to unmarshal cached profile", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.String("id", id))
	return &r, nil
}

// Set stores a record in Redis cache with TTL.
func (c *RedisRecordCache) Set(ctx context.Context, r *domain.Record) error {
	if r == nil {
		return fmt.Errorf("cannot cache nil record")
	}

	data, err := json.Marshal(r)
	if err != nil {
		c.log.Error("failed to marshal profile for cache", zap.String("id", r.ID), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, CacheKey(r.ID), data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("id", r.ID), zap.Error(err))
		return err
	}

	c.log.Debug("cached profile", zap.String("id", r.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes a record from Redis cache.
func (c *RedisRecordCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, CacheKey(id)).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.String("id", id), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.String("id", id))
	return nil
}
