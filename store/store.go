package store

import (
	"context"
	"time"
)

// Cache is the common interface for script cache backends (Redis, in-memory).
// A ttl of zero stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context) (int, error)
	Len(ctx context.Context) (int, error)
	Close() error
}
