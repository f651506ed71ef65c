package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/restlab/paged-collection-client/pkg/collection"
)

const redisKeyPrefix = "collection:checkpoint:"

// RedisStore is a Store backed by Redis, for checkpoints shared across
// processes. The Redis client is borrowed, not owned: Close does not
// close it.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed checkpoint store. ttl bounds the
// lifetime of saved checkpoints; zero means no expiry.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Save persists the cursor under key.
func (s *RedisStore) Save(ctx context.Context, key string, cursor collection.Cursor) error {
	Operations.WithLabelValues("redis", "save").Inc()

	data, err := json.Marshal(cursor)
	if err != nil {
		OperationErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("marshal cursor: %w", err)
	}

	if err := s.redis.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		OperationErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Load returns the cursor stored under key.
func (s *RedisStore) Load(ctx context.Context, key string) (collection.Cursor, error) {
	Operations.WithLabelValues("redis", "load").Inc()

	data, err := s.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return collection.Cursor{}, ErrNotFound
		}
		OperationErrors.WithLabelValues("redis", "load").Inc()
		return collection.Cursor{}, fmt.Errorf("redis get: %w", err)
	}

	var cursor collection.Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		OperationErrors.WithLabelValues("redis", "load").Inc()
		return collection.Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCheckpoint, err)
	}

	return cursor, nil
}

// Delete removes the checkpoint under key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	Operations.WithLabelValues("redis", "delete").Inc()

	if err := s.redis.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		OperationErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// Close implements Store. The underlying Redis client is shared and
// stays open.
func (s *RedisStore) Close() error {
	return nil
}
