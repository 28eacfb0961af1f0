package cache

import (
	"context"
	"time"
)

// Cache is the contract for the read-side cache layer.
// Implementations can be swapped (Redis, in-memory).
type Cache interface {
	// Get loads the value stored under key into dest.
	// found=false on a cache miss, dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value as JSON; ttl=0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}
