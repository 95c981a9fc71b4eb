package normalize

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// PhotoCache memoizes resolved photo URLs by row id. An empty string is a
// valid cached value meaning "no photo".
type PhotoCache interface {
	Get(id string) (string, bool)
	Set(id, url string)
	Delete(id string)
	Clear()
}

// MemoryPhotoCache is a process-local PhotoCache.
type MemoryPhotoCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryPhotoCache() *MemoryPhotoCache {
	return &MemoryPhotoCache{entries: make(map[string]string)}
}

func (c *MemoryPhotoCache) Get(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.entries[id]
	return u, ok
}

func (c *MemoryPhotoCache) Set(id, url string) {
	c.mu.Lock()
	c.entries[id] = url
	c.mu.Unlock()
}

func (c *MemoryPhotoCache) Delete(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

func (c *MemoryPhotoCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()
}

// Len returns the number of cached rows.
func (c *MemoryPhotoCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisPhotoCache shares resolved URLs between API instances. Redis errors are
// treated as cache misses.
type RedisPhotoCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisPhotoCache(client *redis.Client, prefix string, ttl time.Duration) *RedisPhotoCache {
	if prefix == "" {
		prefix = "photo:"
	}
	return &RedisPhotoCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisPhotoCache) Get(id string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	u, err := c.client.Get(ctx, c.prefix+id).Result()
	if err != nil {
		if err != redis.Nil {
			logger.WithError(err).Debug("photo cache get failed")
		}
		return "", false
	}
	return u, true
}

func (c *RedisPhotoCache) Set(id, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+id, url, c.ttl).Err(); err != nil {
		logger.WithError(err).Debug("photo cache set failed")
	}
}

func (c *RedisPhotoCache) Delete(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		logger.WithError(err).Debug("photo cache delete failed")
	}
}

func (c *RedisPhotoCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 200 {
			c.client.Del(ctx, keys...)
			keys = keys[:0]
		}
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
	if err := iter.Err(); err != nil {
		logger.WithError(err).Debug("photo cache clear failed")
	}
}
