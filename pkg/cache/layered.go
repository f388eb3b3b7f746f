package cache

import (
	"context"
	"time"
)

// LayeredCache keeps a short-lived in-process copy (L1) in front of a shared
// cache (L2). Locks always go to L2 so they hold across instances.
type LayeredCache struct {
	local    *MemoryCache
	shared   Service
	localTTL time.Duration
}

// NewLayeredCache creates a layered cache over shared.
func NewLayeredCache(shared Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		LocalTTL:      time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		local:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		shared:   shared,
		localTTL: cfg.LocalTTL,
	}
}

func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.localTTL {
		return expiration
	}
	return lc.localTTL
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Write-through: shared first, then local
	if err := lc.shared.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, value, lc.l1TTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.local.Get(ctx, key, dest); err == nil {
		return nil
	}

	if err := lc.shared.Get(ctx, key, dest); err != nil {
		return err
	}

	_ = lc.local.Set(ctx, key, dest, lc.localTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.shared.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	return lc.shared.Exists(ctx, key)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.shared.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.shared.Unlock(ctx, key)
}

// Close stops the local layer. The shared layer is owned by the caller.
func (lc *LayeredCache) Close() error {
	return lc.local.Close()
}
