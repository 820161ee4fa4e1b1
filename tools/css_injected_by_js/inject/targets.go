package inject

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInjectionTargetNotFound is returned when no script chunk can receive
// the injection code.
var ErrInjectionTargetNotFound = errors.New("unable to locate the JavaScript asset for adding the CSS injection code; review the build configuration or supply a JS assets filter")

// Selection is the result of target resolution.
type Selection struct {
	// Targets are the chunks that receive injected code.
	Targets []*OutputEntry
	// Candidates are all chunks that passed the filter.
	Candidates []*OutputEntry
	// Ambiguous is set when the default heuristic had to pick one of
	// several entry chunks.
	Ambiguous bool
}

// Warning describes an ambiguous default selection, or "" if there is none.
func (s Selection) Warning() string {
	if !s.Ambiguous || len(s.Targets) == 0 {
		return ""
	}
	return fmt.Sprintf("multiple entry chunks found (%s); injecting CSS into the last one, %s. Supply a JS assets filter to choose explicitly",
		strings.Join(fileNames(s.Candidates), ", "), s.Targets[0].FileName)
}

// SelectTargets picks the chunks of m that receive injection code. With a
// nil filter only the last non-polyfill entry chunk is chosen. A custom
// filter selects every script chunk it accepts.
func SelectTargets(m *Manifest, filter ChunkFilter) (Selection, error) {
	if filter != nil {
		chunks := scriptChunks(m, filter)
		if len(chunks) == 0 {
			return Selection{}, fmt.Errorf("no script chunk matched the JS assets filter: %w", ErrInjectionTargetNotFound)
		}
		return Selection{Targets: chunks, Candidates: chunks}, nil
	}

	candidates := scriptChunks(m, DefaultChunkFilter)
	switch len(candidates) {
	case 0:
		return Selection{}, fmt.Errorf("no entry chunk found: %w", ErrInjectionTargetNotFound)
	case 1:
		return Selection{Targets: candidates, Candidates: candidates}, nil
	}
	return Selection{
		Targets:    candidates[len(candidates)-1:],
		Candidates: candidates,
		Ambiguous:  true,
	}, nil
}

func fileNames(entries []*OutputEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.FileName
	}
	return names
}
