package inject

import (
	"regexp"
	"strings"
)

// AssetFilter narrows the set of stylesheet assets that get internalized.
type AssetFilter func(e *OutputEntry) bool

// ChunkFilter picks the script chunks that receive injected code.
type ChunkFilter func(e *OutputEntry) bool

var scriptChunkRe = regexp.MustCompile(`\.[cm]?js$`)

// IsStylesheetAsset reports whether e is a .css asset accepted by filter.
// A nil filter accepts every stylesheet.
func IsStylesheetAsset(e *OutputEntry, filter AssetFilter) bool {
	if e == nil || e.Kind != KindAsset || !strings.HasSuffix(e.FileName, ".css") {
		return false
	}
	return filter == nil || filter(e)
}

// IsScriptChunk reports whether e is a chunk with a .js, .mjs or .cjs name,
// or a chunk built from an entry module under some other name.
func IsScriptChunk(e *OutputEntry) bool {
	if e == nil || e.Kind != KindChunk {
		return false
	}
	return scriptChunkRe.MatchString(e.FileName) || isScriptEntryOutput(e.FileName, e.FacadeModuleID)
}

// isScriptEntryOutput covers entry outputs without a script extension, such
// as the single <stdout> output of a build with no outfile or outdir.
func isScriptEntryOutput(name, entryPoint string) bool {
	if entryPoint == "" {
		return false
	}
	return !strings.HasSuffix(name, ".css") && !strings.HasSuffix(name, ".map")
}

// DefaultChunkFilter accepts entry chunks that are not polyfills.
func DefaultChunkFilter(e *OutputEntry) bool {
	return e != nil && e.IsEntry && !strings.Contains(e.FileName, "polyfill")
}

// IsHTMLDocument reports whether e is an .html output.
func IsHTMLDocument(e *OutputEntry) bool {
	return e != nil && strings.HasSuffix(e.FileName, ".html")
}

// stylesheetNames returns the names of the stylesheet assets in m accepted
// by filter, in manifest order.
func stylesheetNames(m *Manifest, filter AssetFilter) []string {
	var names []string
	for _, e := range m.Entries() {
		if IsStylesheetAsset(e, filter) {
			names = append(names, e.FileName)
		}
	}
	return names
}

// scriptChunks returns the script chunks of m accepted by filter, in
// manifest order. A nil filter accepts every script chunk.
func scriptChunks(m *Manifest, filter ChunkFilter) []*OutputEntry {
	var chunks []*OutputEntry
	for _, e := range m.Entries() {
		if IsScriptChunk(e) && (filter == nil || filter(e)) {
			chunks = append(chunks, e)
		}
	}
	return chunks
}
