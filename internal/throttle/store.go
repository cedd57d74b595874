// Package throttle implements the sliding-window rate limiting and account
// lockout used by the authentication guard. State lives in an expiring
// key-value store, not the durable audit tables: losing the store (e.g. a
// Redis restart) silently resets throttling, which is an accepted
// degradation rather than an error.
package throttle

import (
	"context"
	"time"
)

// Store is the expiring keyed counter/lock store behind the limiters. It is
// injected so tests can supply an in-memory implementation with a
// controllable clock.
type Store interface {
	// Increment atomically increments the counter at key and returns the new
	// value. A counter created by this call gets the full ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)

	// Count returns the current counter value, zero when absent or expired.
	Count(ctx context.Context, key string) (int, error)

	// SecondsUntilReset returns how long until the counter at key expires.
	// Zero when the key is absent.
	SecondsUntilReset(ctx context.Context, key string) (int, error)

	// Clear removes the counter at key.
	Clear(ctx context.Context, key string) error

	// PutLock stores a lock value under key with the given ttl unless one
	// already exists. Returns whether the lock was created by this call.
	PutLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// GetLock returns the lock value under key and whether it exists.
	GetLock(ctx context.Context, key string) (string, bool, error)
}
