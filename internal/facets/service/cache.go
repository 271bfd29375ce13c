package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crm_search_backend/internal/facets"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "facets:"

// Cache stores raw facet responses.
type Cache interface {
	Get(ctx context.Context, key string) (facets.Raw, bool, error)
	Set(ctx context.Context, key string, raw facets.Raw, ttl time.Duration) error
}

// RedisCache keeps raw facets as JSON strings.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (facets.Raw, bool, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get facets cache: %w", err)
	}

	var raw facets.Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("decode facets cache: %w", err)
	}
	return raw, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, raw facets.Raw, ttl time.Duration) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode facets cache: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set facets cache: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
