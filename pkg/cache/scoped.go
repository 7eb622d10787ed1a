package cache

// ScopedKeyer prefixes every key of an inner Keyer.
//
// Builds of different gallery sites share one cache by scoping their keys
// with the site host:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "site:imaginationsquared.com:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix to the keys of inner.
// A nil inner means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) PageKey(url string) string {
	return k.prefix + k.inner.PageKey(url)
}

func (k *ScopedKeyer) ImageKey(url string) string {
	return k.prefix + k.inner.ImageKey(url)
}
