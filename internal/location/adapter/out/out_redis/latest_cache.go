package out_redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

const (
	keyPrefix = "location:latest:"
	cacheTTL  = time.Hour
)

// RedisLatestCache keeps the newest sample per engineer in Redis.
type RedisLatestCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisLatestCache creates the cache.
func NewRedisLatestCache(client *redis.Client, log *logger.Logger) *RedisLatestCache {
	return &RedisLatestCache{
		client: client,
		log:    log,
	}
}

// Put stores the sample unless a newer one is already cached. Out-of-order
// replays from the offline queue must not move the marker backwards.
func (c *RedisLatestCache) Put(ctx context.Context, s *domain.Sample) error {
	current, err := c.Get(ctx, s.EngineerID)
	if err != nil {
		return err
	}
	if current != nil && !s.NewerThan(current) {
		return nil
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+s.EngineerID, payload, cacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the cached sample, or nil on a miss.
func (c *RedisLatestCache) Get(ctx context.Context, engineerID string) (*domain.Sample, error) {
	payload, err := c.client.Get(ctx, keyPrefix+engineerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s domain.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		c.log.Warn(logger.Entry{
			Action:  "cache_decode_failed",
			Message: err.Error(),
		})
		return nil, nil
	}
	return &s, nil
}
