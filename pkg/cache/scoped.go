package cache

// ScopedKeyer prefixes every key of an inner Keyer, so deployments sharing
// one Redis do not read each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "refgraph:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) *ScopedKeyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) ModelKey(payloadHash string, opts ModelKeyOpts) string {
	return k.prefix + k.inner.ModelKey(payloadHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
