// Package cache provides a bounded, shared LRU with compute-once lookups
// for results that are expensive to derive and safe to recompute.
package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

// Clock supplies the current time for TTL checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Stats counts cache activity since creation or the last Purge.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns the share of lookups served from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry[V any] struct {
	value  V
	stored time.Time
}

// LRU is a capacity-bounded cache safe for concurrent use. Concurrent
// GetOrCompute calls for the same missing key run the compute function once
// and all observe its result.
type LRU[K comparable, V any] struct {
	name  string
	ttl   time.Duration
	clock Clock
	log   *slog.Logger

	mu    sync.Mutex
	lru   *simplelru.LRU[K, entry[V]]
	stats Stats

	group singleflight.Group
}

// Options configures an LRU.
type Options struct {
	Name     string
	Capacity int
	// TTL expires entries this long after they were stored. Zero disables
	// expiry.
	TTL   time.Duration
	Clock Clock
}

// New creates an LRU. A nil clock uses SystemClock.
func New[K comparable, V any](opts Options, log *slog.Logger) (*LRU[K, V], error) {
	l, err := simplelru.NewLRU[K, entry[V]](opts.Capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", opts.Name, err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &LRU[K, V]{
		name:  opts.Name,
		ttl:   opts.TTL,
		clock: clock,
		log:   log,
		lru:   l,
	}, nil
}

func (c *LRU[K, V]) expired(e entry[V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.stored) >= c.ttl
}

// lookup returns a live entry. Must be called with c.mu held.
func (c *LRU[K, V]) lookup(key K) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e, c.clock.Now()) {
		c.lru.Remove(key)
		c.stats.Evictions++
		var zero V
		return zero, false
	}
	return e.value, true
}

// Get returns the cached value for key.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lookup(key)
	if ok {
		c.stats.Hits++
	}
	return v, ok
}

// Add stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

func (c *LRU[K, V]) add(key K, value V) {
	if c.lru.Add(key, entry[V]{value: value, stored: c.clock.Now()}) {
		c.stats.Evictions++
	}
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. Errors are returned to every waiting caller and not cached.
func (c *LRU[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(fmt.Sprintf("%#v", key), func() (any, error) {
		c.mu.Lock()
		if v, ok := c.lookup(key); ok {
			c.stats.Hits++
			c.mu.Unlock()
			return v, nil
		}
		c.stats.Misses++
		c.mu.Unlock()

		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Remove drops key from the cache.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Len returns the number of stored entries, expired ones included.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *LRU[K, V]) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	n := 0
	for _, k := range c.lru.Keys() {
		e, ok := c.lru.Peek(k)
		if ok && c.expired(e, now) {
			c.lru.Remove(k)
			n++
		}
	}
	c.stats.Evictions += uint64(n)
	if n > 0 {
		c.log.Debug("swept stale entries", "cache", c.name, "count", n, "remaining", c.lru.Len())
	}
	return n
}

// Purge drops every entry and resets the statistics.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.stats = Stats{}
	c.log.Debug("purged", "cache", c.name)
}

// Stats returns a snapshot of the counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
