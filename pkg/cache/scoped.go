package cache

// ScopedKeyer wraps a Keyer with a prefix so that several diagrams or users
// can share one backing cache without seeing each other's entries:
//
//	keyer := cache.NewScopedKeyer(nil, "diagram:orders:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer defaults
// to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(dotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(dotHash, opts)
}
