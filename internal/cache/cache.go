// Package cache provides the read-through cache used in front of the store.
// Entries are opaque bytes with a per-entry expiry; callers must treat a
// miss or an error as "go to the store".
package cache

import (
	"context"
	"net/url"
	"time"
)

// Cache is a keyed store with per-entry TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes one key and reports whether it existed
	Delete(ctx context.Context, key string) (bool, error)
	// DeletePrefix removes every key starting with prefix and returns how many went
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Purge drops expired entries
	Purge(ctx context.Context) (int, error)
}

// Key builds "user:domain:params" with params query-encoded in key order
func Key(userID, domain string, params map[string]string) string {
	vals := make(url.Values, len(params))
	for k, v := range params {
		vals.Set(k, v)
	}
	return DomainPrefix(userID, domain) + vals.Encode()
}

// UserPrefix matches every key of one user
func UserPrefix(userID string) string {
	return userID + ":"
}

// DomainPrefix matches every key of one user in one domain
func DomainPrefix(userID, domain string) string {
	return userID + ":" + domain + ":"
}
