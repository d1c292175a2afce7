package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader is a cache-aside reader for values of type T. Concurrent loads of
// the same key share one call to the load function.
type Loader[T any] struct {
	cache  Cache
	keyer  Keyer
	policy Policy
	group  singleflight.Group
}

// NewLoader creates a Loader. A nil keyer means DefaultKeyer.
func NewLoader[T any](c Cache, keyer Keyer, policy Policy) *Loader[T] {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Loader[T]{cache: c, keyer: keyer, policy: policy}
}

// Load returns the cached value for (scope, params) or calls load, caching
// its result for ttl (0 means the policy default). Errors are not cached.
// A key derivation failure bypasses the cache.
func (l *Loader[T]) Load(ctx context.Context, scope string, params any, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if l.cache == nil || !l.policy.ShouldCache() {
		return load(ctx)
	}
	key, err := l.keyer.Key(scope, params)
	if err != nil {
		return load(ctx)
	}

	if raw, ok := l.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		_ = l.cache.Delete(ctx, key)
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		if raw, err := json.Marshal(v); err == nil {
			_ = l.cache.Set(ctx, key, raw, l.policy.EffectiveTTL(ttl))
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Invalidate drops the cached value for (scope, params).
func (l *Loader[T]) Invalidate(ctx context.Context, scope string, params any) error {
	if l.cache == nil {
		return ErrNilCache
	}
	key, err := l.keyer.Key(scope, params)
	if err != nil {
		return err
	}
	return l.cache.Delete(ctx, key)
}
