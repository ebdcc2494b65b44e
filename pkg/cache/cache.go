package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching services.
type Cache interface {
	// Get returns "" with a nil error when the key does not exist.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Close() error
}
