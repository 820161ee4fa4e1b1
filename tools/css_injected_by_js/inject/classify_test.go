package inject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStylesheetAsset(t *testing.T) {
	notVendor := func(e *OutputEntry) bool { return !strings.Contains(e.FileName, "vendor") }
	tests := []struct {
		name   string
		entry  *OutputEntry
		filter AssetFilter
		want   bool
	}{
		{"css asset", NewAsset("assets/index.css", nil), nil, true},
		{"css chunk", NewChunk("index.css", "", false, ""), nil, false},
		{"js asset", NewAsset("index.js", nil), nil, false},
		{"css map", NewAsset("index.css.map", nil), nil, false},
		{"filtered out", NewAsset("vendor.css", nil), notVendor, false},
		{"filter accepts", NewAsset("app.css", nil), notVendor, true},
		{"nil entry", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStylesheetAsset(tt.entry, tt.filter))
		})
	}
}

func TestIsScriptChunk(t *testing.T) {
	tests := []struct {
		entry *OutputEntry
		want  bool
	}{
		{NewChunk("index.js", "", true, ""), true},
		{NewChunk("index.mjs", "", true, ""), true},
		{NewChunk("index.cjs", "", false, ""), true},
		{NewChunk("index.js.map", "", false, ""), false},
		{NewChunk("index.ts", "", false, ""), false},
		{NewChunk("<stdout>", "", true, "src/main.js"), true},
		{NewChunk("main.css", "", true, "src/main.css"), false},
		{NewChunk("main.js.map", "", true, "src/main.js"), false},
		{NewAsset("index.js", nil), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsScriptChunk(tt.entry), tt.entry.FileName)
	}
}

func TestDefaultChunkFilter(t *testing.T) {
	assert.True(t, DefaultChunkFilter(NewChunk("index.js", "", true, "")))
	assert.False(t, DefaultChunkFilter(NewChunk("chunk-abc.js", "", false, "")))
	assert.False(t, DefaultChunkFilter(NewChunk("polyfills-legacy.js", "", true, "")))
	assert.False(t, DefaultChunkFilter(nil))
}

func TestIsHTMLDocument(t *testing.T) {
	assert.True(t, IsHTMLDocument(NewAsset("index.html", nil)))
	assert.True(t, IsHTMLDocument(NewAsset("nested/about.html", nil)))
	assert.False(t, IsHTMLDocument(NewAsset("index.htm", nil)))
	assert.False(t, IsHTMLDocument(nil))
}
