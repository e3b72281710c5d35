package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Cache stores look-up lists keyed by name. Entries never expire; Clear drops them all.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, values []string) error
	Clear(ctx context.Context) error
}

type MemoryCache struct {
	store sync.Map // map[key][]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	val, ok := c.store.Load(key)
	if !ok {
		return nil, false, nil
	}
	return val.([]string), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, values []string) error {
	c.store.Store(key, values)
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.store.Range(func(k, _ interface{}) bool {
		c.store.Delete(k)
		return true
	})
	return nil
}

// RedisCache shares look-ups across API instances.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix + "lookup:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get lookup %s: %w", key, err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, false, fmt.Errorf("decode lookup %s: %w", key, err)
	}
	return values, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, data, 0).Err()
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
