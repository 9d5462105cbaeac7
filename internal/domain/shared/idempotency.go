package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client request keys for a limited time
type IdempotencyStore interface {
	// Claim records key for ttl. It returns false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so the same request may be sent again
	Release(ctx context.Context, key string) error
	Close() error
}
