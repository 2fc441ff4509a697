/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/acronis/go-lrucache/log"
	"github.com/acronis/go-lrucache/lrucache"
	"github.com/acronis/go-lrucache/retry"
)

// demoParams describes what the demo does with the cache.
type demoParams struct {
	Inserts    int
	AccessKeys []int
	LoadKeys   []int
}

var errBackendUnavailable = errors.New("backend is temporarily unavailable")

// demo fills the cache with key=i, value=i*100 pairs and then reads the access keys,
// printing the cache state after every operation.
type demo struct {
	out         io.Writer
	logger      log.FieldLogger
	cache       *lrucache.SyncCache[int, int]
	retryPolicy retry.Policy
}

func newDemo(out io.Writer, logger log.FieldLogger, capacity int, mc lrucache.MetricsCollector) (*demo, error) {
	cache, err := lrucache.NewSyncWithOpts[int, int](capacity, mc, lrucache.Options[int, int]{
		OnEvict: func(key int, value int) {
			logger.Debug("entry evicted", log.Int("key", key), log.Int("value", value))
		},
	})
	if err != nil {
		return nil, err
	}
	return &demo{
		out:         out,
		logger:      logger,
		cache:       cache,
		retryPolicy: retry.NewConstantBackoffPolicy(10*time.Millisecond, 3),
	}, nil
}

func (d *demo) run(ctx context.Context, params demoParams) error {
	for i := 1; i <= params.Inserts; i++ {
		_, evicted := d.cache.Put(i, i*100)
		d.logger.Debug("put", log.Int("key", i), log.Int("value", i*100), log.Bool("evicted", evicted))
		if _, err := fmt.Fprintf(d.out, "After inserting (%d,%d):\n", i, i*100); err != nil {
			return err
		}
		if err := d.printState(); err != nil {
			return err
		}
	}

	for _, key := range params.AccessKeys {
		value, found := d.cache.Get(key)
		d.logger.Debug("get", log.Int("key", key), log.Bool("found", found))
		var err error
		if found {
			_, err = fmt.Fprintf(d.out, "\nAccess key %d: %d\n", key, value)
		} else {
			_, err = fmt.Fprintf(d.out, "\nAccess key %d: not found\n", key)
		}
		if err != nil {
			return err
		}
		if err = d.printState(); err != nil {
			return err
		}
	}

	if len(params.LoadKeys) != 0 {
		if err := d.load(ctx, params.LoadKeys); err != nil {
			return err
		}
	}

	stats := d.cache.Stats()
	d.logger.Info("demo finished",
		log.Int("entries", d.cache.Len()),
		log.Uint64("hits", stats.Hits),
		log.Uint64("misses", stats.Misses),
		log.Uint64("evictions", stats.Evictions),
		log.Float64("hit_ratio", stats.HitRatio()),
	)
	_, err := fmt.Fprintf(d.out, "\nHits: %d, misses: %d, evictions: %d, hit ratio: %.2f\n",
		stats.Hits, stats.Misses, stats.Evictions, stats.HitRatio())
	return err
}

// load reads keys through the cache from a backend that fails the first request for every key.
func (d *demo) load(ctx context.Context, keys []int) error {
	failedOnce := make(map[int]bool)
	backend := func(key int) (int, error) {
		if !failedOnce[key] {
			failedOnce[key] = true
			return 0, errBackendUnavailable
		}
		return key * 100, nil
	}
	loader := retry.WrapLoader(ctx, d.retryPolicy,
		func(err error) bool { return errors.Is(err, errBackendUnavailable) },
		func(err error, delay time.Duration) {
			d.logger.Warn("load failed, retrying", log.Error(err), log.Duration("delay", delay))
		},
		backend,
	)

	for _, key := range keys {
		value, cached, err := d.cache.GetOrLoad(key, loader)
		if err != nil {
			return fmt.Errorf("load key %d: %w", key, err)
		}
		d.logger.Debug("load", log.Int("key", key), log.Bool("cached", cached))
		if _, err = fmt.Fprintf(d.out, "\nLoad key %d: %d (cached: %t)\n", key, value, cached); err != nil {
			return err
		}
		if err = d.printState(); err != nil {
			return err
		}
	}
	return nil
}

func (d *demo) printState() error {
	_, err := fmt.Fprintf(d.out, "Cache state (MRU -> LRU): %s\n", d.cache)
	return err
}
