package cache

// ScopedKeyer wraps a Keyer with a prefix so that several workspaces or
// deployments can share one Redis without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "flowlens:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(datasetHash string, mapping any) string {
	return k.prefix + k.inner.GraphKey(datasetHash, mapping)
}

// ProjectionKey generates a prefixed projection key.
func (k *ScopedKeyer) ProjectionKey(graphHash, view string, params any) string {
	return k.prefix + k.inner.ProjectionKey(graphHash, view, params)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(projectionKey string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(projectionKey, opts)
}
