/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

// Entry is a key-value pair resident in the cache.
// It's also returned by Put when the least recently used entry is evicted.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// EvictionCallback is called for every entry evicted due to capacity overflow.
type EvictionCallback[K comparable, V any] func(key K, value V)

// evict removes the least recently used entry from both the order list and the key index,
// and notifies metrics, statistics and the eviction callback.
func (c *Cache[K, V]) evict() (evicted Entry[K, V], ok bool) {
	h := c.order.back()
	if h == nilHandle {
		return evicted, false
	}
	evicted = c.order.remove(h)
	delete(c.index, evicted.Key)

	c.stats.incEvictions()
	c.metricsCollector.AddEvictions(1)
	if c.onEvict != nil {
		c.onEvict(evicted.Key, evicted.Value)
	}
	return evicted, true
}
