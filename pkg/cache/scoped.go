package cache

// ScopedKeyer wraps a Keyer with a prefix so multiple datasets can share a
// cache backend without colliding. This matters for the Redis backend,
// where several operators may point at the same instance.
//
// Example usage:
//
//	// Dataset-specific keys on a shared Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "slide-2026-031:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// OffsetKey generates a prefixed key for offset estimate caching.
func (k *ScopedKeyer) OffsetKey(listingHash string, opts OffsetKeyOpts) string {
	return k.prefix + k.inner.OffsetKey(listingHash, opts)
}

// DimsKey generates a prefixed key for tile dimension caching.
func (k *ScopedKeyer) DimsKey(listingHash string) string {
	return k.prefix + k.inner.DimsKey(listingHash)
}
