/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "sync"

// SyncCache is a Cache guarded by a single mutex. It's safe for concurrent use.
// Every method touching entries takes the exclusive lock because Get changes the recency order.
// The eviction callback is called with the lock held.
type SyncCache[K comparable, V any] struct {
	mu    sync.Mutex
	cache *Cache[K, V]
	loads loadGroup[K, V]
}

// NewSync creates a new SyncCache with the provided capacity and metrics collector.
func NewSync[K comparable, V any](capacity int, metricsCollector MetricsCollector) (*SyncCache[K, V], error) {
	return NewSyncWithOpts[K, V](capacity, metricsCollector, Options[K, V]{})
}

// NewSyncWithOpts creates a new SyncCache with the provided capacity, metrics collector, and options.
func NewSyncWithOpts[K comparable, V any](
	capacity int, metricsCollector MetricsCollector, opts Options[K, V],
) (*SyncCache[K, V], error) {
	cache, err := NewWithOpts[K, V](capacity, metricsCollector, opts)
	if err != nil {
		return nil, err
	}
	return &SyncCache[K, V]{cache: cache}, nil
}

// Get returns a value from the cache by the provided key. See Cache.Get.
func (c *SyncCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(key)
}

// Put adds or overwrites a value in the cache. See Cache.Put.
func (c *SyncCache[K, V]) Put(key K, value V) (evicted Entry[K, V], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Put(key, value)
}

// GetOrAdd returns a value from the cache by the provided key.
// If the key does not exist, it adds the value returned by valueProvider.
// valueProvider is called with the lock held.
func (c *SyncCache[K, V]) GetOrAdd(key K, valueProvider func() V) (value V, exists bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, exists = c.cache.Get(key); exists {
		return value, true
	}
	value = valueProvider()
	c.cache.insert(key, value)
	return value, false
}

// GetOrLoad returns a value from the cache by the provided key.
// If the key does not exist, it calls loader without holding the lock and stores the loaded value.
// Concurrent calls for the same key share a single loader call.
// If loader fails, the error is returned and nothing is stored.
// If loader panics, the goroutine that called it re-panics, others receive *PanicError.
func (c *SyncCache[K, V]) GetOrLoad(key K, loader func(key K) (V, error)) (value V, exists bool, err error) {
	if value, exists = c.Get(key); exists {
		return value, true, nil
	}
	value, err, _ = c.loads.Do(key, func() (V, error) {
		// The value could be stored by a load that finished after our miss.
		if v, ok := c.Peek(key); ok {
			return v, nil
		}
		v, loadErr := loader(key)
		if loadErr != nil {
			return v, loadErr
		}
		c.mu.Lock()
		if !c.cache.update(key, v) {
			c.cache.insert(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	return value, false, err
}

// Peek returns a value without changing the recency order and statistics.
func (c *SyncCache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Peek(key)
}

// Contains reports whether the key is in the cache.
func (c *SyncCache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Contains(key)
}

// Remove removes a value from the cache by the provided key.
func (c *SyncCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Remove(key)
}

// Oldest returns the least recently used entry.
func (c *SyncCache[K, V]) Oldest() (entry Entry[K, V], ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Oldest()
}

// Purge clears the cache.
func (c *SyncCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

// Len returns the number of entries in the cache.
func (c *SyncCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Cap returns the maximum number of entries the cache can hold.
func (c *SyncCache[K, V]) Cap() int {
	return c.cache.Cap()
}

// Stats returns a snapshot of the cache usage statistics.
// Counters are atomic, so the lock is not taken.
func (c *SyncCache[K, V]) Stats() Stats {
	return c.cache.Stats()
}

// ResetStats zeroes the statistics counters.
func (c *SyncCache[K, V]) ResetStats() {
	c.cache.ResetStats()
}

// Keys returns keys from the most recently used to the least recently used.
func (c *SyncCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Keys()
}

// Entries returns entries from the most recently used to the least recently used.
func (c *SyncCache[K, V]) Entries() []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Entries()
}

// String returns a human-readable listing of the cache entries.
func (c *SyncCache[K, V]) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.String()
}
