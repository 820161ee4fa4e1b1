package inject

import "fmt"

// ChunkStyles pairs a script chunk with the stylesheets it imports, in the
// order the bundler declared them.
type ChunkStyles struct {
	Chunk       string
	Stylesheets []string
}

// BuildJsCssMap maps every script chunk accepted by filter to the
// stylesheets it imports. A nil filter accepts all script chunks, so lazily
// loaded chunks carry their own styles. Chunks without stylesheet imports
// are left out. Only names accepted by isStylesheet are kept.
func BuildJsCssMap(m *Manifest, filter ChunkFilter, isStylesheet func(name string) bool) ([]ChunkStyles, error) {
	chunks := scriptChunks(m, filter)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no script chunk available for relative injection: %w", ErrInjectionTargetNotFound)
	}

	var out []ChunkStyles
	for _, c := range chunks {
		if len(c.ImportedCSS) == 0 {
			continue
		}
		seen := make(map[string]bool, len(c.ImportedCSS))
		var sheets []string
		for _, name := range c.ImportedCSS {
			if seen[name] || (isStylesheet != nil && !isStylesheet(name)) {
				continue
			}
			seen[name] = true
			sheets = append(sheets, name)
		}
		if len(sheets) == 0 {
			continue
		}
		out = append(out, ChunkStyles{Chunk: c.FileName, Stylesheets: sheets})
	}
	return out, nil
}

// claimed returns the set of stylesheet names referenced by the map.
func claimed(styles []ChunkStyles) map[string]bool {
	out := make(map[string]bool)
	for _, cs := range styles {
		for _, s := range cs.Stylesheets {
			out[s] = true
		}
	}
	return out
}
