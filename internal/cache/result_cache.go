// Package cache memoises classification traces keyed by evaluation-set
// fingerprint. An in-process LRU always sits in front; a Redis store can be
// added behind it so several API replicas share results.
package cache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

const defaultSize = 1024

// Stats tracks cache performance metrics
type Stats struct {
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	Evictions    int64  `json:"evictions"`
	Entries      int    `json:"entries"`
	RemoteHits   int64  `json:"remote_hits"`
	RemoteErrors int64  `json:"remote_errors"`
	BreakerState string `json:"breaker_state,omitempty"`
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ResultCache is a two-level cache of classification details.
type ResultCache struct {
	local  *lru.Cache[string, *domain.ClassificationDetail]
	remote *RedisStore
	logger *logrus.Logger

	mu    sync.Mutex
	stats Stats
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithRedis adds a shared second level behind the in-process LRU.
func WithRedis(store *RedisStore) Option {
	return func(c *ResultCache) {
		c.remote = store
	}
}

// New creates a result cache holding up to size entries in process.
func New(size int, logger *logrus.Logger, opts ...Option) (*ResultCache, error) {
	if size <= 0 {
		size = defaultSize
	}
	c := &ResultCache{logger: logger}
	local, err := lru.NewWithEvict[string, *domain.ClassificationDetail](size, func(string, *domain.ClassificationDetail) {
		c.stats.Evictions++
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	c.local = local

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached detail for key. A remote hit is copied into the
// local LRU.
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.ClassificationDetail, bool) {
	if detail, ok := c.local.Get(key); ok {
		c.record(func(s *Stats) { s.Hits++ })
		return detail, true
	}

	if c.remote != nil {
		detail, found, err := c.remote.Get(ctx, key)
		if err != nil {
			c.record(func(s *Stats) { s.RemoteErrors++ })
			c.logger.WithError(err).WithField("key", key).Debug("Shared cache lookup failed")
		}
		if found {
			c.add(key, detail)
			c.record(func(s *Stats) { s.Hits++; s.RemoteHits++ })
			return detail, true
		}
	}

	c.record(func(s *Stats) { s.Misses++ })
	return nil, false
}

// Set stores detail under key in every level. Remote failures are logged
// and counted but never returned.
func (c *ResultCache) Set(ctx context.Context, key string, detail *domain.ClassificationDetail) {
	c.add(key, detail)
	if c.remote == nil {
		return
	}
	if err := c.remote.Set(ctx, key, detail); err != nil {
		c.record(func(s *Stats) { s.RemoteErrors++ })
		c.logger.WithError(err).WithField("key", key).Debug("Shared cache store failed")
	}
}

// Purge empties the local level.
func (c *ResultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local.Purge()
}

// Stats returns a snapshot of cache statistics.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	s := c.stats
	c.mu.Unlock()

	s.Entries = c.local.Len()
	if c.remote != nil {
		s.BreakerState = c.remote.BreakerState()
	}
	return s
}

// Close releases the remote connection, if any.
func (c *ResultCache) Close() error {
	if c.remote == nil {
		return nil
	}
	return c.remote.Close()
}

// add inserts under mu so the eviction callback can update stats safely.
func (c *ResultCache) add(key string, detail *domain.ClassificationDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local.Add(key, detail)
}

func (c *ResultCache) record(update func(*Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(&c.stats)
}
