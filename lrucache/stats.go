/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "go.uber.org/atomic"

// Stats is a snapshot of the cache usage statistics.
type Stats struct {
	// Hits is the number of lookups that found the key (including Put on a resident key).
	Hits uint64

	// Misses is the number of lookups that didn't find the key (including Put of a new key).
	Misses uint64

	// Evictions is the number of entries removed because of capacity overflow.
	Evictions uint64
}

// HitRatio returns hits / (hits + misses), or 0 if no lookups have been performed.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// statsCounters holds monotonic counters decoupled from the cache structures.
// Counters are atomic, so a snapshot may be taken concurrently with updates.
type statsCounters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func (sc *statsCounters) incHits() {
	sc.hits.Inc()
}

func (sc *statsCounters) incMisses() {
	sc.misses.Inc()
}

func (sc *statsCounters) incEvictions() {
	sc.evictions.Inc()
}

func (sc *statsCounters) snapshot() Stats {
	return Stats{
		Hits:      sc.hits.Load(),
		Misses:    sc.misses.Load(),
		Evictions: sc.evictions.Load(),
	}
}

func (sc *statsCounters) reset() {
	sc.hits.Store(0)
	sc.misses.Store(0)
	sc.evictions.Store(0)
}
