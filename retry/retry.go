/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry provides backoff policies for retrying cache loaders that may fail temporarily.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// Loader loads a value by key. It has the same signature as the loader of lrucache.SyncCache.GetOrLoad.
type Loader[K any, V any] func(key K) (V, error)

// Do calls fn until it succeeds, fails with a non-retryable error, the policy gives up, or ctx is done.
// IsRetryable can be nil, then any error is retried.
// Notify is called on every retry with the error and the backoff delay, it can be nil.
func Do[V any](
	ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn func(ctx context.Context) (V, error),
) (V, error) {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	var result V
	op := func() error {
		v, err := fn(bctx.Context())
		if err != nil {
			if isRetryable != nil && !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}
	if err := backoff.RetryNotify(op, bctx, notify); err != nil {
		var zero V
		return zero, err
	}
	return result, nil
}

// WrapLoader returns a loader that retries load according to the policy.
// Since the wrapped loader is shared by all concurrent GetOrLoad callers of the key,
// ctx should outlive all of them.
func WrapLoader[K any, V any](
	ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, load Loader[K, V],
) Loader[K, V] {
	return func(key K) (V, error) {
		return Do(ctx, p, isRetryable, notify, func(context.Context) (V, error) {
			return load(key)
		})
	}
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy means repeat up to max times with exponentially growing delays (1.5 multiplier).
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval and max retry attempt count.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{initialInterval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	return withMaxRetries(eb, p.maxAttempts)
}

// ConstantBackoffPolicy means repeat up to max times with constant interval delays.
type ConstantBackoffPolicy struct {
	interval    time.Duration
	maxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval and max retry attempt count.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxRetries(backoff.NewConstantBackOff(p.interval), p.maxAttempts)
}

func withMaxRetries(b backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts))
	}
	b.Reset()
	return b
}
