package trivia

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	categoryCacheKey = "trivia:categories"
)

// CategoryCache stores the category listing. Get returns nil, nil on a miss.
type CategoryCache interface {
	Get(ctx context.Context) (Categories, error)
	Set(ctx context.Context, categories Categories) error
}

// RedisCategoryCache is a Redis-backed CategoryCache.
type RedisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ CategoryCache = (*RedisCategoryCache)(nil)

func NewRedisCategoryCache(client *redis.Client, ttl time.Duration) *RedisCategoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCategoryCache{client: client, ttl: ttl}
}

func (c *RedisCategoryCache) Get(ctx context.Context) (Categories, error) {
	data, err := c.client.Get(ctx, categoryCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeCategories(data)
}

func (c *RedisCategoryCache) Set(ctx context.Context, categories Categories) error {
	data, err := encodeCategories(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoryCacheKey, data, c.ttl).Err()
}

// The cached form is a plain array; Categories' own MarshalJSON emits an object.
func encodeCategories(categories Categories) ([]byte, error) {
	return json.Marshal([]Category(categories))
}

func decodeCategories(data []byte) (Categories, error) {
	var raw []Category
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = []Category{}
	}
	return Categories(raw), nil
}
