package inject

import (
	"sync"
)

// Kind distinguishes the two shapes of bundler output.
type Kind int

const (
	// KindAsset is static content such as stylesheet text.
	KindAsset Kind = iota
	// KindChunk is executable script code.
	KindChunk
)

func (k Kind) String() string {
	if k == KindChunk {
		return "chunk"
	}
	return "asset"
}

// OutputEntry is one file produced by the bundler. Assets carry Source,
// chunks carry Code and their bundler metadata.
type OutputEntry struct {
	Kind     Kind
	FileName string

	// Asset fields.
	Source []byte

	// Chunk fields.
	Code           string
	IsEntry        bool
	FacadeModuleID string
	// ImportedCSS lists the stylesheet outputs this chunk pulls in, in the
	// order the bundler reported them.
	ImportedCSS []string
}

// NewAsset returns an asset entry.
func NewAsset(fileName string, source []byte) *OutputEntry {
	return &OutputEntry{Kind: KindAsset, FileName: fileName, Source: source}
}

// NewChunk returns a chunk entry.
func NewChunk(fileName, code string, isEntry bool, facade string, css ...string) *OutputEntry {
	return &OutputEntry{
		Kind:           KindChunk,
		FileName:       fileName,
		Code:           code,
		IsEntry:        isEntry,
		FacadeModuleID: facade,
		ImportedCSS:    css,
	}
}

// Manifest is an insertion-ordered set of output entries keyed by file name.
// It is safe for concurrent use.
type Manifest struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*OutputEntry
}

// NewManifest returns a manifest holding the given entries in order.
func NewManifest(entries ...*OutputEntry) *Manifest {
	m := &Manifest{entries: make(map[string]*OutputEntry, len(entries))}
	for _, e := range entries {
		m.Add(e)
	}
	return m
}

// Add inserts or replaces an entry. Replacing keeps the original position.
func (m *Manifest) Add(e *OutputEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]*OutputEntry)
	}
	if _, ok := m.entries[e.FileName]; !ok {
		m.order = append(m.order, e.FileName)
	}
	m.entries[e.FileName] = e
}

// Get returns the named entry, if present.
func (m *Manifest) Get(name string) (*OutputEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	return e, ok
}

// Delete removes the named entry and reports whether it was present.
func (m *Manifest) Delete(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return false
	}
	delete(m.entries, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// SetCode replaces the code of a chunk entry.
func (m *Manifest) SetCode(name, code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok || e.Kind != KindChunk {
		return false
	}
	e.Code = code
	return true
}

// Names returns the file names in manifest order.
func (m *Manifest) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Entries returns a snapshot of the entries in manifest order.
func (m *Manifest) Entries() []*OutputEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*OutputEntry, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.entries[n])
	}
	return out
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}
