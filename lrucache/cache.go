/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"strings"
)

// Cache represents a fixed-capacity LRU cache with usage statistics and Prometheus metrics.
// It's not safe for concurrent use (even Get changes the recency order), use SyncCache instead.
type Cache[K comparable, V any] struct {
	capacity int

	order *orderList[K, V]
	index map[K]handle // map of cache entries, value is a handle of the order list node

	stats            statsCounters
	metricsCollector MetricsCollector
	onEvict          EvictionCallback[K, V]
}

// Options represents options for the cache.
type Options[K comparable, V any] struct {
	// OnEvict is called synchronously for every entry evicted because the cache is full.
	// It's not called for removed, overwritten or purged entries.
	// The callback must not use the cache that invokes it.
	OnEvict EvictionCallback[K, V]
}

// New creates a new Cache with the provided capacity and metrics collector.
func New[K comparable, V any](capacity int, metricsCollector MetricsCollector) (*Cache[K, V], error) {
	return NewWithOpts[K, V](capacity, metricsCollector, Options[K, V]{})
}

// NewWithOpts creates a new Cache with the provided capacity, metrics collector, and options.
// Metrics collector is used to collect statistics about cache usage.
// It can be nil, in this case, metrics will be disabled.
func NewWithOpts[K comparable, V any](capacity int, metricsCollector MetricsCollector, opts Options[K, V]) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be greater than 0, got %d", ErrInvalidConfiguration, capacity)
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetricsCollector
	}
	return &Cache[K, V]{
		capacity:         capacity,
		order:            newOrderList[K, V](capacity),
		index:            make(map[K]handle),
		metricsCollector: metricsCollector,
		onEvict:          opts.OnEvict,
	}, nil
}

// Get returns a value from the cache by the provided key and makes the entry the most recently used.
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	h, hit := c.index[key]
	if !hit {
		c.stats.incMisses()
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.order.moveToFront(h)
	c.stats.incHits()
	c.metricsCollector.IncHits()
	return c.order.entry(h).Value, true
}

// Put adds a value to the cache or overwrites the existing one, and makes the entry the most recently used.
// If the key is new and the cache is full, the least recently used entry is evicted and returned with ok=true.
// Overwriting never evicts anything.
func (c *Cache[K, V]) Put(key K, value V) (evicted Entry[K, V], ok bool) {
	if c.update(key, value) {
		c.stats.incHits()
		c.metricsCollector.IncHits()
		return evicted, false
	}
	c.stats.incMisses()
	c.metricsCollector.IncMisses()
	return c.insert(key, value)
}

// update overwrites the value of a resident key and promotes it. It returns false if the key is absent.
func (c *Cache[K, V]) update(key K, value V) bool {
	h, exists := c.index[key]
	if !exists {
		return false
	}
	c.order.entry(h).Value = value
	c.order.moveToFront(h)
	return true
}

// insert adds an absent key at the head, evicting the least recently used entry first if the cache is full.
func (c *Cache[K, V]) insert(key K, value V) (evicted Entry[K, V], ok bool) {
	if c.order.len() >= c.capacity {
		evicted, ok = c.evict()
	}
	c.index[key] = c.order.pushFront(key, value)
	c.metricsCollector.SetAmount(len(c.index))
	return evicted, ok
}

// Peek returns a value from the cache by the provided key
// without changing the recency order and statistics.
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	h, exists := c.index[key]
	if !exists {
		return value, false
	}
	return c.order.entry(h).Value, true
}

// Contains reports whether the key is in the cache.
// It doesn't change the recency order and statistics.
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.index[key]
	return ok
}

// Remove removes a value from the cache by the provided key.
// It returns false if there was no such key.
func (c *Cache[K, V]) Remove(key K) bool {
	h, ok := c.index[key]
	if !ok {
		return false
	}
	c.order.remove(h)
	delete(c.index, key)
	c.metricsCollector.SetAmount(len(c.index))
	return true
}

// Oldest returns the least recently used entry (the next one to be evicted)
// without changing the recency order and statistics.
func (c *Cache[K, V]) Oldest() (entry Entry[K, V], ok bool) {
	h := c.order.back()
	if h == nilHandle {
		return entry, false
	}
	return *c.order.entry(h), true
}

// Purge clears the cache.
// Removed entries are not counted as evictions, and the eviction callback is not called.
// Statistics are preserved, use ResetStats to clear them.
func (c *Cache[K, V]) Purge() {
	c.order.init()
	c.index = make(map[K]handle)
	c.metricsCollector.SetAmount(0)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	return len(c.index)
}

// Cap returns the maximum number of entries the cache can hold.
func (c *Cache[K, V]) Cap() int {
	return c.capacity
}

// Stats returns a snapshot of the cache usage statistics.
func (c *Cache[K, V]) Stats() Stats {
	return c.stats.snapshot()
}

// ResetStats zeroes hits, misses and evictions counters. Cache entries are not affected.
// Prometheus metrics are monotonic and are not reset.
func (c *Cache[K, V]) ResetStats() {
	c.stats.reset()
}

// Keys returns keys of the cache entries in order from the most recently used to the least recently used.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, c.order.len())
	for h := c.order.front(); h != nilHandle; h = c.order.next(h) {
		keys = append(keys, c.order.entry(h).Key)
	}
	return keys
}

// Entries returns the cache entries in order from the most recently used to the least recently used.
func (c *Cache[K, V]) Entries() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, c.order.len())
	for h := c.order.front(); h != nilHandle; h = c.order.next(h) {
		entries = append(entries, *c.order.entry(h))
	}
	return entries
}

// String returns a human-readable listing of the cache entries from the most recently used to the least recently used.
// The format is intended for diagnostics only.
func (c *Cache[K, V]) String() string {
	var sb strings.Builder
	for h := c.order.front(); h != nilHandle; h = c.order.next(h) {
		if sb.Len() != 0 {
			sb.WriteByte(' ')
		}
		e := c.order.entry(h)
		_, _ = fmt.Fprintf(&sb, "[%v:%v]", e.Key, e.Value)
	}
	return sb.String()
}
