package inject

import (
	"strings"
	"sync"
)

// SourceCache remembers the decoded text of every stylesheet it has seen, so
// a stylesheet can still be read after its manifest entry is gone.
type SourceCache struct {
	mu    sync.Mutex
	texts map[string]string
}

// NewSourceCache returns an empty cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{texts: make(map[string]string)}
}

// Extract returns the text of the named asset, decoding its bytes as UTF-8.
// It does not modify the manifest. Unknown names yield the cached text, or
// the empty string if the name was never seen.
func (c *SourceCache) Extract(m *Manifest, name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.texts == nil {
		c.texts = make(map[string]string)
	}

	if e, ok := m.Get(name); ok && e.Kind == KindAsset && len(e.Source) > 0 {
		// An empty source never overwrites text seen earlier.
		c.texts[name] = strings.ToValidUTF8(string(e.Source), "\uFFFD")
	}
	return c.texts[name]
}

// ConcatAndRemove concatenates the named stylesheets without a separator
// and removes each one from the manifest as it is consumed.
func (c *SourceCache) ConcatAndRemove(m *Manifest, names []string) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(c.Extract(m, name))
		m.Delete(name)
	}
	return b.String()
}

// Len returns the number of cached stylesheets.
func (c *SourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.texts)
}
