// Package cache provides multi-level caching of rendered report markup. The
// memory tier holds hot previews for the regenerate loop; the optional Redis
// tier shares warm previews across server instances.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/domain"
)

// Stats represents cache performance statistics.
type Stats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	RedisHits     int64     `json:"redis_hits"`
	RedisMisses   int64     `json:"redis_misses"`
	RenderCalls   int64     `json:"render_calls"`
	TotalRequests int64     `json:"total_requests"`
	LastReset     time.Time `json:"last_reset"`
}

// cachedMarkup wraps stored markup with expiry metadata for the Redis tier.
type cachedMarkup struct {
	Markup    string    `json:"markup"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PreviewCache is a two-tier cache keyed by a digest of the report payload.
// Identical payloads produce identical markup, so a hit skips the renderer
// entirely.
type PreviewCache struct {
	memory     *lru.Cache[string, string]
	redis      *redis.Client
	defaultTTL time.Duration
	logger     *logrus.Logger

	statsMu sync.Mutex
	stats   Stats
}

// NewPreviewCache creates a memory-only preview cache.
func NewPreviewCache(config domain.CacheConfig, logger *logrus.Logger) (*PreviewCache, error) {
	maxItems := config.MaxItems
	if maxItems <= 0 {
		maxItems = 128
	}

	memory, err := lru.New[string, string](maxItems)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}

	return &PreviewCache{
		memory:     memory,
		defaultTTL: config.DefaultTTL,
		logger:     logger,
		stats:      Stats{LastReset: time.Now()},
	}, nil
}

// NewPreviewCacheWithRedis creates a preview cache backed by a Redis tier in
// addition to the memory tier.
func NewPreviewCacheWithRedis(config domain.CacheConfig, logger *logrus.Logger) (*PreviewCache, error) {
	cache, err := NewPreviewCache(config, logger)
	if err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache.redis = client
	return cache, nil
}

// Key derives the cache key from the payload content. Any change to sections,
// follow-up, identity or render options produces a different key.
func Key(payload *domain.ReportPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload for cache key: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("preview:%x", hash[:8]), nil
}

// Get returns cached markup for the payload, checking the memory tier first.
// A Redis hit is promoted into the memory tier.
func (c *PreviewCache) Get(ctx context.Context, key string) (string, bool) {
	c.statsMu.Lock()
	c.stats.TotalRequests++
	c.statsMu.Unlock()

	if markup, ok := c.memory.Get(key); ok {
		c.count(func(s *Stats) { s.MemoryHits++ })
		return markup, true
	}
	c.count(func(s *Stats) { s.MemoryMisses++ })

	if c.redis == nil {
		return "", false
	}

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.count(func(s *Stats) { s.RedisMisses++ })
		return "", false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis preview cache lookup failed")
		c.count(func(s *Stats) { s.RedisMisses++ })
		return "", false
	}

	var cached cachedMarkup
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		c.count(func(s *Stats) { s.RedisMisses++ })
		return "", false
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		c.count(func(s *Stats) { s.RedisMisses++ })
		return "", false
	}

	c.count(func(s *Stats) { s.RedisHits++ })
	c.memory.Add(key, cached.Markup)
	return cached.Markup, true
}

// Set stores markup in both tiers. Redis failures are logged, not returned;
// the cache is an optimization, never a correctness dependency.
func (c *PreviewCache) Set(ctx context.Context, key, markup string) {
	c.memory.Add(key, markup)

	if c.redis == nil {
		return
	}

	ttl := c.defaultTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cached := cachedMarkup{
		Markup:    markup,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal preview cache entry")
		return
	}

	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to store preview in Redis")
	}
}

// Purge clears the memory tier. Redis entries expire on their own TTL.
func (c *PreviewCache) Purge() {
	c.memory.Purge()
}

// Stats returns a snapshot of cache performance counters.
func (c *PreviewCache) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Close closes the Redis connection, if any.
func (c *PreviewCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *PreviewCache) count(f func(*Stats)) {
	c.statsMu.Lock()
	f(&c.stats)
	c.statsMu.Unlock()
}

// CachedRenderer decorates a renderer with the preview cache. It implements
// domain.Renderer.
type CachedRenderer struct {
	renderer domain.Renderer
	cache    *PreviewCache
	logger   *logrus.Logger
}

// NewCachedRenderer wraps a renderer with caching.
func NewCachedRenderer(renderer domain.Renderer, cache *PreviewCache, logger *logrus.Logger) *CachedRenderer {
	return &CachedRenderer{
		renderer: renderer,
		cache:    cache,
		logger:   logger,
	}
}

// Render returns cached markup when the payload digest matches a previous
// render, otherwise renders and stores the result. Key derivation failures
// fall through to an uncached render.
func (r *CachedRenderer) Render(ctx context.Context, payload *domain.ReportPayload) (string, error) {
	key, err := Key(payload)
	if err != nil {
		r.logger.WithError(err).Warn("Preview cache key derivation failed, rendering uncached")
		return r.renderer.Render(ctx, payload)
	}

	if markup, ok := r.cache.Get(ctx, key); ok {
		return markup, nil
	}

	r.cache.count(func(s *Stats) { s.RenderCalls++ })
	markup, err := r.renderer.Render(ctx, payload)
	if err != nil {
		return "", err
	}

	r.cache.Set(ctx, key, markup)
	return markup, nil
}
