package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecommendationCache guarda rankings serializados por poco tiempo.
// Un cache ausente o caido simplemente significa recomputar: nunca es error.
type RecommendationCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

type memoryRecommendationCache struct {
	mu    sync.Mutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

func NewMemoryRecommendationCache() RecommendationCache {
	return &memoryRecommendationCache{items: make(map[string]cacheEntry)}
}

func (c *memoryRecommendationCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().UTC().After(entry.expires) {
		delete(c.items, key)
		return nil, false
	}
	return entry.value, true
}

func (c *memoryRecommendationCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{value: value, expires: time.Now().UTC().Add(ttl)}
}

type redisRecommendationCache struct {
	client *redis.Client
	prefix string
}

func NewRedisRecommendationCache(client *redis.Client) RecommendationCache {
	if client == nil {
		return nil
	}
	return &redisRecommendationCache{
		client: client,
		prefix: "reco:",
	}
}

func (c *redisRecommendationCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *redisRecommendationCache) Set(key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	// Mejor esfuerzo: un Set fallido solo cuesta un recomputo.
	_ = c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}
