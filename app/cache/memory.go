package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		return "", false, nil
	}

	s, ok := value.(string)
	if !ok {
		c.cache.Delete(key)
		return "", false, nil
	}

	return s, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	c.cache.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}
