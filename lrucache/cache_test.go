/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		cache, err := New[int, int](capacity, nil)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
		require.Nil(t, cache)
	}

	cache, err := New[int, int](3, nil)
	require.NoError(t, err)
	require.Equal(t, 3, cache.Cap())
	require.Equal(t, 0, cache.Len())
	require.Equal(t, Stats{}, cache.Stats())
	requireInvariants(t, cache)
}

func TestCache_Scenarios(t *testing.T) {
	t.Run("get promotes, put into full cache evicts LRU", func(t *testing.T) {
		cache := makeIntCache(t, 3)
		requireNoEviction(t, cache, 1, 100)
		requireNoEviction(t, cache, 2, 200)
		requireNoEviction(t, cache, 3, 300)

		val, ok := cache.Get(2)
		require.True(t, ok)
		require.Equal(t, 200, val)
		require.Equal(t, []int{2, 3, 1}, cache.Keys())

		evicted, ok := cache.Put(4, 400)
		require.True(t, ok)
		require.Equal(t, Entry[int, int]{Key: 1, Value: 100}, evicted)

		_, ok = cache.Get(1)
		require.False(t, ok)
		require.Equal(t, []int{4, 2, 3}, cache.Keys())
		requireInvariants(t, cache)
	})

	t.Run("sequential inserts keep the most recent keys", func(t *testing.T) {
		cache := makeIntCache(t, 5)
		for i := 1; i <= 10; i++ {
			cache.Put(i, i*100)
			requireInvariants(t, cache)
		}
		require.ElementsMatch(t, []int{6, 7, 8, 9, 10}, cache.Keys())
		missesBefore := cache.Stats().Misses
		hitsBefore := cache.Stats().Hits

		_, ok := cache.Get(3)
		require.False(t, ok)
		require.Equal(t, missesBefore+1, cache.Stats().Misses)

		val, ok := cache.Get(7)
		require.True(t, ok)
		require.Equal(t, 700, val)
		require.Equal(t, hitsBefore+1, cache.Stats().Hits)
		require.Equal(t, 7, cache.Keys()[0])
	})

	t.Run("capacity 1", func(t *testing.T) {
		cache, err := New[int, string](1, nil)
		require.NoError(t, err)

		_, ok := cache.Put(1, "a")
		require.False(t, ok)
		evicted, ok := cache.Put(2, "b")
		require.True(t, ok)
		require.Equal(t, Entry[int, string]{Key: 1, Value: "a"}, evicted)
		require.False(t, cache.Contains(1))
		require.True(t, cache.Contains(2))
		requireInvariants(t, cache)
	})

	t.Run("hit ratio without lookups", func(t *testing.T) {
		cache := makeIntCache(t, 5)
		require.Equal(t, 0.0, cache.Stats().HitRatio())
	})

	t.Run("overwrite in full cache doesn't evict", func(t *testing.T) {
		cache := makeIntCache(t, 2)
		cache.Put(1, 10)
		cache.Put(2, 20)

		_, ok := cache.Put(1, 11)
		require.False(t, ok)
		require.Equal(t, 2, cache.Len())

		val, ok := cache.Get(1)
		require.True(t, ok)
		require.Equal(t, 11, val)
		require.Equal(t, uint64(0), cache.Stats().Evictions)
		requireInvariants(t, cache)
	})

	t.Run("reinsert evicted key", func(t *testing.T) {
		cache := makeIntCache(t, 2)
		cache.Put(1, 10)
		cache.Put(2, 20)
		cache.Put(3, 30) // evicts 1
		evicted, ok := cache.Put(1, 100)
		require.True(t, ok)
		require.Equal(t, 2, evicted.Key)
		require.Equal(t, []int{1, 3}, cache.Keys())
		requireInvariants(t, cache)
	})
}

func TestCache_Remove(t *testing.T) {
	cache := makeIntCache(t, 3)
	cache.Put(1, 10)
	cache.Put(2, 20)
	cache.Put(3, 30)
	statsBefore := cache.Stats()

	require.False(t, cache.Remove(42))
	require.True(t, cache.Remove(2))
	require.False(t, cache.Remove(2))
	require.False(t, cache.Contains(2))
	require.Equal(t, []int{3, 1}, cache.Keys())
	require.Equal(t, statsBefore, cache.Stats())
	requireInvariants(t, cache)

	// The freed slot is reused without eviction.
	_, ok := cache.Put(4, 40)
	require.False(t, ok)
	require.Equal(t, []int{4, 3, 1}, cache.Keys())
	requireInvariants(t, cache)

	require.True(t, cache.Remove(1))
	require.True(t, cache.Remove(4))
	require.True(t, cache.Remove(3))
	require.Equal(t, 0, cache.Len())
	_, ok = cache.Oldest()
	require.False(t, ok)
	requireInvariants(t, cache)
}

func TestCache_ReadOnlyOperations(t *testing.T) {
	cache := makeIntCache(t, 3)
	cache.Put(1, 10)
	cache.Put(2, 20)
	cache.Put(3, 30)
	keysBefore := cache.Keys()
	statsBefore := cache.Stats()

	for i := 0; i < 3; i++ {
		require.True(t, cache.Contains(1))
		require.False(t, cache.Contains(4))
		require.Equal(t, 3, cache.Len())

		val, ok := cache.Peek(1)
		require.True(t, ok)
		require.Equal(t, 10, val)
		_, ok = cache.Peek(4)
		require.False(t, ok)

		oldest, ok := cache.Oldest()
		require.True(t, ok)
		require.Equal(t, Entry[int, int]{Key: 1, Value: 10}, oldest)

		require.Equal(t, "[3:30] [2:20] [1:10]", cache.String())
	}
	require.Equal(t, keysBefore, cache.Keys())
	require.Equal(t, statsBefore, cache.Stats())
	require.Equal(t, []Entry[int, int]{{3, 30}, {2, 20}, {1, 10}}, cache.Entries())
}

func TestCache_Stats(t *testing.T) {
	cache := makeIntCache(t, 2)
	cache.Put(1, 10) // miss
	cache.Put(1, 11) // hit
	cache.Get(1)     // hit
	cache.Get(2)     // miss
	cache.Put(2, 20) // miss
	cache.Put(3, 30) // miss, evicts 1

	stats := cache.Stats()
	require.Equal(t, Stats{Hits: 2, Misses: 4, Evictions: 1}, stats)
	require.InDelta(t, 2.0/6.0, stats.HitRatio(), 1e-9)

	cache.ResetStats()
	require.Equal(t, Stats{}, cache.Stats())
	require.Equal(t, 0.0, cache.Stats().HitRatio())
	require.Equal(t, []int{3, 2}, cache.Keys(), "reset must not touch entries")
}

func TestCache_Purge(t *testing.T) {
	var evictedKeys []int
	cache, err := NewWithOpts[int, int](3, nil, Options[int, int]{
		OnEvict: func(key int, _ int) { evictedKeys = append(evictedKeys, key) },
	})
	require.NoError(t, err)
	cache.Put(1, 10)
	cache.Put(2, 20)
	statsBefore := cache.Stats()

	cache.Purge()
	require.Equal(t, 0, cache.Len())
	require.Empty(t, cache.Keys())
	require.False(t, cache.Contains(1))
	require.Empty(t, evictedKeys)
	require.Equal(t, statsBefore, cache.Stats())
	require.Equal(t, "", cache.String())
	requireInvariants(t, cache)

	for i := 1; i <= 4; i++ {
		cache.Put(i, i*10)
	}
	require.Equal(t, []int{4, 3, 2}, cache.Keys())
	require.Equal(t, []int{1}, evictedKeys)
	requireInvariants(t, cache)
}

func TestCache_PurgeReleasesValues(t *testing.T) {
	cache, err := New[int, *[1 << 10]byte](3, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		cache.Put(i, new([1 << 10]byte))
	}

	cache.Purge()
	nodes := cache.order.nodes[:cap(cache.order.nodes)]
	require.NotEmpty(t, nodes)
	for i, n := range nodes {
		require.Nil(t, n.entry.Value, "slot %d still holds a purged value", i)
	}
}

func TestCache_RemoveReleasesValue(t *testing.T) {
	cache, err := New[int, *int](2, nil)
	require.NoError(t, err)
	v := 42
	cache.Put(1, &v)
	h := cache.index[1]
	require.True(t, cache.Remove(1))
	require.Nil(t, cache.order.nodes[h].entry.Value)
}

func TestCache_OnEvict(t *testing.T) {
	var evicted []Entry[string, int]
	cache, err := NewWithOpts[string, int](2, nil, Options[string, int]{
		OnEvict: func(key string, value int) {
			evicted = append(evicted, Entry[string, int]{key, value})
		},
	})
	require.NoError(t, err)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("a", 10) // overwrite, no eviction
	require.Empty(t, evicted)

	cache.Put("c", 3) // evicts "b"
	require.True(t, cache.Remove("a"))
	cache.Put("d", 4)
	cache.Put("e", 5) // evicts "c"

	require.Equal(t, []Entry[string, int]{{"b", 2}, {"c", 3}}, evicted)
	require.Equal(t, uint64(2), cache.Stats().Evictions)
}

func TestCache_ZeroValues(t *testing.T) {
	cache, err := New[string, *int](2, nil)
	require.NoError(t, err)

	cache.Put("", nil)
	val, ok := cache.Get("")
	require.True(t, ok)
	require.Nil(t, val)

	cache.Put("x", nil)
	evicted, ok := cache.Put("y", nil)
	require.True(t, ok)
	require.Equal(t, "", evicted.Key)
	require.Nil(t, evicted.Value)
}

func TestCache_Metrics(t *testing.T) {
	mc := NewPrometheusMetrics()
	cache, err := New[int, int](2, mc)
	require.NoError(t, err)

	cache.Put(1, 10)
	cache.Put(2, 20)
	cache.Put(2, 21)
	cache.Get(1)
	cache.Get(3)
	cache.Put(3, 30)
	cache.Remove(1)
	cache.Peek(2)
	cache.Contains(2)

	assert.Equal(t, 1, int(testutil.ToFloat64(mc.EntriesAmount)))
	assert.Equal(t, 2, int(testutil.ToFloat64(mc.HitsTotal)))
	assert.Equal(t, 4, int(testutil.ToFloat64(mc.MissesTotal)))
	assert.Equal(t, 1, int(testutil.ToFloat64(mc.EvictionsTotal)))

	cache.Purge()
	assert.Equal(t, 0, int(testutil.ToFloat64(mc.EntriesAmount)))
}

// TestCache_MatchesModel runs random operations against the cache and against a naive slice-based model.
func TestCache_MatchesModel(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 8} {
		cache := makeIntCache(t, capacity)
		model := []Entry[int, int]{} // MRU first

		find := func(key int) int {
			for i := range model {
				if model[i].Key == key {
					return i
				}
			}
			return -1
		}
		promote := func(i int) {
			e := model[i]
			model = append(model[:i], model[i+1:]...)
			model = append([]Entry[int, int]{e}, model...)
		}

		rnd := rand.New(rand.NewSource(int64(capacity)))
		for step := 0; step < 2000; step++ {
			key := rnd.Intn(capacity * 3)
			switch rnd.Intn(4) {
			case 0:
				val, ok := cache.Get(key)
				i := find(key)
				require.Equal(t, i >= 0, ok)
				if i >= 0 {
					require.Equal(t, model[i].Value, val)
					promote(i)
				}
			case 1, 2:
				value := rnd.Int()
				evicted, ok := cache.Put(key, value)
				if i := find(key); i >= 0 {
					require.False(t, ok)
					model[i].Value = value
					promote(i)
				} else {
					if len(model) == capacity {
						require.True(t, ok)
						require.Equal(t, model[len(model)-1], evicted)
						model = model[:len(model)-1]
					} else {
						require.False(t, ok)
					}
					model = append([]Entry[int, int]{{key, value}}, model...)
				}
			case 3:
				i := find(key)
				require.Equal(t, i >= 0, cache.Remove(key))
				if i >= 0 {
					model = append(model[:i], model[i+1:]...)
				}
			}
			require.Equal(t, model, cache.Entries())
			requireInvariants(t, cache)
		}
	}
}

func BenchmarkCache_Put(b *testing.B) {
	cache, err := New[int, int](1024, nil)
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Put(i%4096, i)
	}
}

func makeIntCache(t *testing.T, capacity int) *Cache[int, int] {
	t.Helper()
	cache, err := New[int, int](capacity, nil)
	require.NoError(t, err)
	return cache
}

func requireNoEviction(t *testing.T, cache *Cache[int, int], key, value int) {
	t.Helper()
	_, evicted := cache.Put(key, value)
	require.False(t, evicted)
}

// requireInvariants checks that the key index and the order list contain the same keys,
// every index handle resolves to the entry with its key, links are consistent in both directions,
// and the size never exceeds the capacity.
func requireInvariants[K comparable, V any](t *testing.T, cache *Cache[K, V]) {
	t.Helper()

	l := cache.order
	require.LessOrEqual(t, cache.Len(), cache.Cap())
	require.Equal(t, len(cache.index), l.len())

	seen := make(map[K]struct{}, l.len())
	prev := nilHandle
	for h := l.front(); h != nilHandle; h = l.next(h) {
		require.Equal(t, prev, l.nodes[h].prev)
		key := l.entry(h).Key
		_, dup := seen[key]
		require.False(t, dup, "duplicate key in order list")
		seen[key] = struct{}{}
		require.Equal(t, h, cache.index[key])
		prev = h
	}
	require.Equal(t, prev, l.back())
	require.Equal(t, len(cache.index), len(seen))

	freeSlots := 0
	for h := l.free; h != nilHandle; h = l.nodes[h].next {
		freeSlots++
	}
	require.Equal(t, len(l.nodes), l.len()+freeSlots)
}
