package postbuild

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestEntry is one record of a Vite build manifest.
type ManifestEntry struct {
	File           string   `json:"file"`
	Name           string   `json:"name,omitempty"`
	Src            string   `json:"src,omitempty"`
	IsEntry        bool     `json:"isEntry,omitempty"`
	IsDynamicEntry bool     `json:"isDynamicEntry,omitempty"`
	Imports        []string `json:"imports,omitempty"`
	DynamicImports []string `json:"dynamicImports,omitempty"`
	CSS            []string `json:"css,omitempty"`
	Assets         []string `json:"assets,omitempty"`
}

// Manifest maps source ids to their build outputs.
type Manifest map[string]ManifestEntry

// manifestCandidates are tried in order, relative to the dist directory.
var manifestCandidates = []string{
	filepath.Join(".vite", "manifest.json"),
	"manifest.json",
}

// FindManifest returns the path of the Vite manifest under dir.
func FindManifest(dir string) (string, error) {
	for _, c := range manifestCandidates {
		p := filepath.Join(dir, c)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no Vite manifest found in %s; build with build.manifest enabled", dir)
}

// ReadManifest reads a Vite manifest file.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m == nil {
		return nil, errors.New("manifest is empty")
	}
	return m, nil
}

// Write stores the manifest in Vite's layout.
func (m Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// byFile indexes the manifest by output file.
func (m Manifest) byFile() map[string]ManifestEntry {
	out := make(map[string]ManifestEntry, len(m))
	for key, e := range m {
		if e.Src == "" {
			e.Src = key
		}
		out[e.File] = e
	}
	return out
}

// prune drops references to removed outputs.
func (m Manifest) prune(removed map[string]bool) {
	for key, e := range m {
		if removed[e.File] {
			delete(m, key)
			continue
		}
		if len(e.CSS) == 0 {
			continue
		}
		var css []string
		for _, c := range e.CSS {
			if !removed[c] {
				css = append(css, c)
			}
		}
		e.CSS = css
		m[key] = e
	}
}
