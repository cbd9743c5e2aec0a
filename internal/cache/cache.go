package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

// Cache is the transient-state interface. Job snapshots live here with a
// TTL; nothing is persisted durably. Implementations must be safe for
// concurrent use.
type Cache interface {
	Ping(ctx context.Context) error
	SetJobSnapshot(ctx context.Context, job *models.OcrJob, ttl time.Duration) error
	GetJobSnapshot(ctx context.Context, id uuid.UUID) (*models.OcrJob, bool, error)
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
	Close() error
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) SetJobSnapshot(ctx context.Context, job *models.OcrJob, ttl time.Duration) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job snapshot: %w", err)
	}
	return c.client.Set(ctx, JobKey(job.ID), b, ttl).Err()
}

func (c *RedisCache) GetJobSnapshot(ctx context.Context, id uuid.UUID) (*models.OcrJob, bool, error) {
	val, err := c.client.Get(ctx, JobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var job models.OcrJob
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, false, fmt.Errorf("decoding job snapshot: %w", err)
	}
	return &job, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
