// Package cache stores derived pipeline results so repeated runs over the
// same tile set skip the expensive stages, most notably cross-correlation
// offset estimation.
//
// Keys are derived from a catalog listing hash, so any change to the tile
// set (added, renamed, or removed files) invalidates cached results
// automatically.
package cache

import (
	"context"
	"time"
)

// TTL values for cached pipeline results. Keys already embed the catalog
// listing hash, so expiration only bounds growth of abandoned entries.
const (
	// TTLOffset applies to cached offset estimates.
	TTLOffset = 90 * 24 * time.Hour

	// TTLDims applies to cached tile dimension probes.
	TTLDims = 90 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// OffsetKeyOpts captures the estimation parameters that affect the result.
// Two runs with different parameters must not share a cache entry.
type OffsetKeyOpts struct {
	SamplePairs int    `json:"sample_pairs"`
	Strategy    string `json:"strategy"`
}

// Keyer generates cache keys for the derived results gridstitch caches.
type Keyer interface {
	// OffsetKey keys an offset estimate by catalog listing hash and the
	// estimation parameters.
	OffsetKey(listingHash string, opts OffsetKeyOpts) string

	// DimsKey keys the probed tile dimensions for a catalog listing.
	DimsKey(listingHash string) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// OffsetKey generates a key for offset estimate caching.
func (k *DefaultKeyer) OffsetKey(listingHash string, opts OffsetKeyOpts) string {
	return hashKey("offset", listingHash, opts)
}

// DimsKey generates a key for tile dimension caching.
func (k *DefaultKeyer) DimsKey(listingHash string) string {
	return hashKey("dims", listingHash)
}
