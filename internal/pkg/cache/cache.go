package cache

import (
	"context"
	"time"
)

// Cache memoizes read-only ledger query results under a short TTL.
type Cache interface {
	// Get unmarshals the cached value into dest and reports whether the key
	// was present and fresh.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
