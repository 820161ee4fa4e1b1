package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatAndRemove(t *testing.T) {
	m := NewManifest(
		NewAsset("a.css", []byte("a")),
		NewAsset("b.css", []byte("b")),
		NewChunk("index.js", "app();", true, "src/index.js"),
		NewAsset("c.css", []byte("c")),
	)
	cache := NewSourceCache()

	css := cache.ConcatAndRemove(m, []string{"a.css", "b.css", "c.css"})
	assert.Equal(t, "abc", css)
	assert.Equal(t, []string{"index.js"}, m.Names())

	// The entries are gone but their text is still known.
	assert.Equal(t, "abc", cache.ConcatAndRemove(m, []string{"a.css", "b.css", "c.css"}))
	assert.Equal(t, "b", cache.Extract(m, "b.css"))
}

func TestConcatAndRemoveNoSeparator(t *testing.T) {
	m := NewManifest(
		NewAsset("a.css", []byte("a{}\n")),
		NewAsset("b.css", []byte("b{}")),
	)
	assert.Equal(t, "a{}\nb{}", NewSourceCache().ConcatAndRemove(m, []string{"a.css", "b.css"}))
}

func TestExtractMissing(t *testing.T) {
	m := NewManifest()
	assert.Equal(t, "", NewSourceCache().Extract(m, "missing.css"))
	assert.Equal(t, "", NewSourceCache().ConcatAndRemove(m, []string{"missing.css"}))
}

func TestExtractDoesNotMutate(t *testing.T) {
	m := NewManifest(NewAsset("a.css", []byte("a")))
	cache := NewSourceCache()
	assert.Equal(t, "a", cache.Extract(m, "a.css"))
	_, ok := m.Get("a.css")
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestExtractDecodesBytes(t *testing.T) {
	for _, s := range []string{"", "body{color:red}", "a::before{content:\"→ ü 日本\"}", " "} {
		m := NewManifest(NewAsset("x.css", []byte(s)))
		assert.Equal(t, s, NewSourceCache().Extract(m, "x.css"))
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	m := NewManifest(NewAsset("x.css", []byte{'a', 0xff, 'b'}))
	assert.Equal(t, "a�b", NewSourceCache().Extract(m, "x.css"))
}

func TestExtractEmptySourceKeepsCache(t *testing.T) {
	cache := NewSourceCache()
	require.Equal(t, "a", cache.Extract(NewManifest(NewAsset("a.css", []byte("a"))), "a.css"))
	assert.Equal(t, "a", cache.Extract(NewManifest(NewAsset("a.css", nil)), "a.css"))
}
