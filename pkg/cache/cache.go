// Package cache stores fetched repository responses so repeated resolutions
// avoid the network.
//
// Three backends implement [Cache]: [FileCache] for local CLI use,
// [RedisCache] for caches shared between machines, and [NullCache] when
// caching is disabled. Keys are produced by a [Keyer] so callers never build
// them by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. A missing or expired entry is
	// reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey returns the key for a response fetched from url within namespace.
	HTTPKey(namespace, url string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<url>", hashing urls too long to be
// used as Redis keys comfortably.
func (DefaultKeyer) HTTPKey(namespace, url string) string {
	if len(url) > 200 {
		return hashKey("http:"+namespace, url)
	}
	return "http:" + namespace + ":" + url
}
