package repository

import (
	"context"
	"time"
)

// CacheRepository is a string key/value cache. A zero ttl keeps the entry
// until it is evicted by the backend.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
