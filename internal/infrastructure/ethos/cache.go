package ethos

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var errCacheMiss = errors.New("cache miss")

// Cache stores raw gateway payloads between lookups.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCache keys every entry under prefix.
func NewRedisCache(client redis.Cmdable, prefix string) Cache {
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errCacheMiss
	}
	return value, err
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheMiss }

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
