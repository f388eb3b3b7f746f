package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// ReadWriter is the part of a cache GetOrLoad needs.
type ReadWriter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// Key joins parts with ':' the way every key in this service is laid out.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetOrLoad returns the cached value for key, or calls load, stores its result
// for ttl and returns it. hit reports whether the value came from the cache.
// Cache failures never fail the call; load errors are returned as is.
func GetOrLoad[T any](ctx context.Context, c ReadWriter, key string, ttl time.Duration, load func(context.Context) (T, error)) (v T, hit bool, err error) {
	if c != nil {
		if err := c.Get(ctx, key, &v); err == nil {
			return v, true, nil
		}
	}
	v, err = load(ctx)
	if err != nil {
		return v, false, err
	}
	if c != nil {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, false, nil
}
