// Package cache provides the in-process TTL cache used by the analytics services.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used when neither the caller nor the options set a TTL.
const DefaultTTL = 5 * time.Minute

// Observer receives cache outcome notifications (e.g. a metrics collector).
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheExpired()
}

// TTLCache is a key/value store with per-entry expiry.
//
// Expiry is lazy: an entry older than its TTL is removed by the read that
// finds it. Reads never renew an entry. The cache never returns errors; it
// only changes performance, never results.
type TTLCache struct {
	mu         sync.Mutex
	items      map[string]*entry
	defaultTTL time.Duration
	now        func() time.Time
	observer   Observer
	logger     *zap.Logger

	group singleflight.Group

	hits      int64
	misses    int64
	expired   int64
	evictions int64
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expiredAt(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Option configures a TTLCache
type Option func(*TTLCache)

// WithDefaultTTL sets the TTL used by Set when ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *TTLCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver registers a hit/miss observer.
func WithObserver(o Observer) Option {
	return func(c *TTLCache) {
		c.observer = o
	}
}

// WithLogger sets the logger used for invalidation messages.
func WithLogger(logger *zap.Logger) Option {
	return func(c *TTLCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *TTLCache {
	c := &TTLCache{
		items:      make(map[string]*entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key, replacing any existing entry. A ttl <= 0
// selects the default TTL.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &entry{
		value:    value,
		storedAt: c.now(),
		ttl:      ttl,
	}
}

// Get returns the value stored under key. Expired entries are deleted and
// reported as a miss.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	value, ok, expired := c.lookup(key, true)
	c.mu.Unlock()

	c.notify(ok, expired)
	return value, ok
}

// Has reports whether key holds a live entry, applying the same expiry as Get.
func (c *TTLCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok, _ := c.lookup(key, false)
	return ok
}

// lookup must be called with c.mu held. Only counted lookups feed the
// hit/miss statistics; expirations are always counted.
func (c *TTLCache) lookup(key string, counted bool) (value any, ok bool, expired bool) {
	item, exists := c.items[key]
	if !exists {
		if counted {
			c.misses++
		}
		return nil, false, false
	}
	if item.expiredAt(c.now()) {
		delete(c.items, key)
		c.expired++
		if counted {
			c.misses++
		}
		return nil, false, true
	}
	if counted {
		c.hits++
	}
	return item.value, true, false
}

// peek reads key without touching the hit/miss statistics.
func (c *TTLCache) peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, _ := c.lookup(key, false)
	return value, ok
}

func (c *TTLCache) notify(hit, expired bool) {
	if c.observer == nil {
		return
	}
	if expired {
		c.observer.CacheExpired()
	}
	if hit {
		c.observer.CacheHit()
	} else {
		c.observer.CacheMiss()
	}
}

// Delete removes a single entry.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		delete(c.items, key)
		c.evictions++
	}
}

// Clear removes every entry.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	n := len(c.items)
	c.items = make(map[string]*entry)
	c.evictions += int64(n)
	c.mu.Unlock()

	c.logger.Debug("Cleared cache", zap.Int("count", n))
}

// Keys returns the keys currently stored, sorted. Expired entries that have
// not been read yet are included.
func (c *TTLCache) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (c *TTLCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	c.evictions += int64(removed)
	c.mu.Unlock()

	if removed > 0 {
		c.logger.Debug("Cleared cache entries",
			zap.String("prefix", prefix),
			zap.Int("count", removed),
		)
	}
	return removed
}

// Stats holds cache statistics
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Expired   int64   `json:"expired"`
	Evictions int64   `json:"evictions"`
	Items     int     `json:"items"`
	HitRate   float64 `json:"hitRate"`
}

// Stats returns a snapshot of cache statistics
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := float64(0)
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Expired:   c.expired,
		Evictions: c.evictions,
		Items:     len(c.items),
		HitRate:   hitRate,
	}
}

// Get returns the value under key when present and of type T.
func Get[T any](c *TTLCache, key string) (T, bool) {
	var zero T
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		c.Delete(key)
		return zero, false
	}
	return value, true
}

// GetOrLoad returns the cached value under key or calls load to produce it.
// Concurrent callers missing the same key share a single load. Errors are
// returned to every waiting caller and nothing is cached.
func GetOrLoad[T any](ctx context.Context, c *TTLCache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := Get[T](c, key); ok {
		return value, nil
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		if raw, ok := c.peek(key); ok {
			if value, ok := raw.(T); ok {
				return value, nil
			}
		}
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, _ := raw.(T)
	return value, nil
}
