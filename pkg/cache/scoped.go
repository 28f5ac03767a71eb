package cache

// ScopedKeyer wraps a Keyer with a prefix so that responses fetched with
// different credentials never share entries.
//
//	anon := NewDefaultKeyer()
//	private := NewScopedKeyer(anon, "user:"+Hash([]byte(username))[:12]+":")
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
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, url string) string {
	return k.prefix + k.inner.HTTPKey(namespace, url)
}
