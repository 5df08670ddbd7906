package cache

import (
	"context"
	"time"
)

// Cache defines the contract for the cache layer. Implementations must be
// safe for concurrent use. A miss returns found=false and leaves dest
// untouched.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
}
