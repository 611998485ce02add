// Package cachex provides a small time-bounded key/value cache used for
// token revocation bookkeeping. The cache is injected rather than global so
// tests can swap in doubles and deployments can share one backing store
// across instances.
package cachex

import (
	"context"
	"time"
)

// Cache stores flag entries that disappear after a fixed lifetime.
// Implementations must be safe for concurrent use. Writes are idempotent:
// re-putting an existing key extends it with the new TTL, which is harmless
// for revocation semantics.
type Cache interface {
	// Put stores key for ttl. A non-positive ttl is a no-op: the entry
	// would already be expired.
	Put(ctx context.Context, key string, ttl time.Duration) error

	// Has reports whether key is present and not yet expired.
	Has(ctx context.Context, key string) (bool, error)
}
