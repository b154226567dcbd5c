// internal/core/ports/cache.go
package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository stores JSON values with an expiry.
type CacheRepository interface {
	// SetWithTTL uses the cache's default TTL when ttl is not positive.
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// RunLock is a cross-process mutual exclusion for sync runs.
type RunLock interface {
	// Acquire returns ok=false without error when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
