package inject

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
)

// PluginName identifies the plugin in esbuild diagnostics.
const PluginName = "css-injected-by-js"

// Plugin wires an Injector into esbuild. One Plugin may serve several
// builds, e.g. an ESM and an IIFE build of the same entry, and those
// builds then share the injection cache.
type Plugin struct {
	injector *Injector
	compiler Compiler
	log      zerolog.Logger
}

// PluginOption customizes a Plugin.
type PluginOption func(*Plugin)

// WithCompiler replaces the esbuild snippet compiler.
func WithCompiler(c Compiler) PluginOption {
	return func(p *Plugin) { p.compiler = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) PluginOption {
	return func(p *Plugin) { p.log = l }
}

// NewPlugin returns a plugin configured by opts.
func NewPlugin(opts Options, fns ...PluginOption) *Plugin {
	p := &Plugin{log: zerolog.Nop()}
	for _, fn := range fns {
		fn(p)
	}
	p.injector = NewInjector(opts, p.log)
	return p
}

// Injector returns the injector behind the plugin.
func (p *Plugin) Injector() *Injector { return p.injector }

// TransformHTML strips links to every stylesheet the plugin has moved into
// a script so far.
func (p *Plugin) TransformHTML(doc string) string {
	return p.injector.TransformHTML(doc)
}

// Esbuild returns the esbuild plugin.
func (p *Plugin) Esbuild() api.Plugin {
	return api.Plugin{
		Name: PluginName,
		Setup: func(build api.PluginBuild) {
			opts := build.InitialOptions
			opts.Metafile = true
			// Outputs change after esbuild is done with them, so they are
			// written here instead.
			writeOutputs := opts.Write
			opts.Write = false

			compiler := p.compiler
			if compiler == nil {
				compiler = &EsbuildCompiler{
					Snippet:  p.injector.Options().Snippet(),
					Settings: SettingsFrom(opts),
				}
			}

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				layout, err := newOutputLayout(opts)
				if err != nil {
					return api.OnEndResult{}, err
				}
				report, err := p.process(context.Background(), result, layout, compiler)
				if err != nil {
					return api.OnEndResult{}, err
				}
				if writeOutputs {
					if err := writeFiles(result.OutputFiles); err != nil {
						return api.OnEndResult{}, err
					}
				}
				var warnings []api.Message
				for _, w := range report.Warnings {
					warnings = append(warnings, api.Message{PluginName: PluginName, Text: w})
				}
				return api.OnEndResult{Warnings: warnings}, nil
			})
		},
	}
}

func (p *Plugin) process(ctx context.Context, result *api.BuildResult, layout outputLayout, c Compiler) (Report, error) {
	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		return Report{}, err
	}
	m := layout.manifest(result.OutputFiles, meta)

	report, err := p.injector.Process(ctx, m, c)
	if err != nil {
		return report, err
	}
	// Source maps of removed stylesheets go with them.
	for _, name := range report.Removed {
		m.Delete(name + ".map")
	}

	removed := make(map[string]bool)
	var files []api.OutputFile
	for _, f := range result.OutputFiles {
		name := layout.name(f.Path)
		e, ok := m.Get(name)
		if !ok {
			removed[layout.metaKey(f.Path)] = true
			continue
		}
		contents := e.Source
		if e.Kind == KindChunk {
			contents = []byte(e.Code)
		}
		if string(contents) != string(f.Contents) {
			f.Contents = contents
			f.Hash = contentHash(contents)
		}
		files = append(files, f)
	}
	result.OutputFiles = files

	if result.Metafile != "" {
		sizes := make(map[string]int, len(files))
		for _, f := range files {
			sizes[layout.metaKey(f.Path)] = len(f.Contents)
		}
		rewritten, err := rewriteMetafile(result.Metafile, removed, sizes)
		if err != nil {
			return report, err
		}
		result.Metafile = rewritten
	}
	return report, nil
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

func writeFiles(files []api.OutputFile) error {
	for _, f := range files {
		if f.Path == stdoutPath {
			if _, err := os.Stdout.Write(f.Contents); err != nil {
				return fmt.Errorf("failed to write to stdout: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(f.Path, f.Contents, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}

// outputLayout translates between absolute output paths, metafile keys
// (relative to the working directory) and manifest names (relative to the
// output directory).
type outputLayout struct {
	workDir string
	outDir  string
	entries map[string]bool
}

func newOutputLayout(opts *api.BuildOptions) (outputLayout, error) {
	workDir := opts.AbsWorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return outputLayout{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(workDir, p)
	}

	outDir := workDir
	switch {
	case opts.Outdir != "":
		outDir = abs(opts.Outdir)
	case opts.Outfile != "":
		outDir = filepath.Dir(abs(opts.Outfile))
	}

	entries := make(map[string]bool)
	for _, e := range opts.EntryPoints {
		entries[abs(e)] = true
	}
	for _, e := range opts.EntryPointsAdvanced {
		entries[abs(e.InputPath)] = true
	}
	return outputLayout{workDir: workDir, outDir: outDir, entries: entries}, nil
}

// stdoutPath is the output path esbuild uses when there is no outfile or
// outdir.
const stdoutPath = "<stdout>"

func (l outputLayout) name(path string) string {
	if path == stdoutPath {
		return path
	}
	rel, err := filepath.Rel(l.outDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (l outputLayout) metaKey(path string) string {
	if path == stdoutPath {
		return path
	}
	rel, err := filepath.Rel(l.workDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// nameOfMetaKey converts a metafile output key into a manifest name.
func (l outputLayout) nameOfMetaKey(key string) string {
	return l.name(filepath.Join(l.workDir, filepath.FromSlash(key)))
}

func (l outputLayout) isEntry(entryPoint string) bool {
	if entryPoint == "" {
		return false
	}
	if l.entries[filepath.Join(l.workDir, filepath.FromSlash(entryPoint))] {
		return true
	}
	return l.entries[filepath.Clean(entryPoint)]
}

// manifest builds a Manifest from esbuild output files. Script outputs
// become chunks carrying their metafile facts.
func (l outputLayout) manifest(files []api.OutputFile, meta metafile) *Manifest {
	m := NewManifest()
	for _, f := range files {
		name := l.name(f.Path)
		out, ok := meta.Outputs[l.metaKey(f.Path)]
		if !ok && f.Path == stdoutPath && len(meta.Outputs) == 1 {
			for _, only := range meta.Outputs {
				out = only
			}
		}
		if !scriptChunkRe.MatchString(name) && !isScriptEntryOutput(name, out.EntryPoint) {
			m.Add(NewAsset(name, f.Contents))
			continue
		}
		var css []string
		if out.CSSBundle != "" {
			css = append(css, l.nameOfMetaKey(out.CSSBundle))
		}
		for _, imp := range out.Imports {
			if strings.HasSuffix(imp.Path, ".css") && !imp.External {
				css = append(css, l.nameOfMetaKey(imp.Path))
			}
		}
		m.Add(NewChunk(name, string(f.Contents), l.isEntry(out.EntryPoint), out.EntryPoint, css...))
	}
	return m
}

// metafile is the part of esbuild's metafile the plugin reads.
type metafile struct {
	Outputs map[string]struct {
		Imports []struct {
			Path     string `json:"path"`
			Kind     string `json:"kind"`
			External bool   `json:"external"`
		} `json:"imports"`
		EntryPoint string `json:"entryPoint"`
		CSSBundle  string `json:"cssBundle"`
	} `json:"outputs"`
}

func parseMetafile(s string) (metafile, error) {
	var meta metafile
	if s == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return meta, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return meta, nil
}

// rewriteMetafile drops removed outputs, and references to them, from the
// metafile, and updates the byte counts of the remaining outputs.
func rewriteMetafile(s string, removed map[string]bool, sizes map[string]int) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return "", fmt.Errorf("failed to parse metafile: %w", err)
	}
	var outputs map[string]map[string]json.RawMessage
	if raw, ok := doc["outputs"]; ok {
		if err := json.Unmarshal(raw, &outputs); err != nil {
			return "", fmt.Errorf("failed to parse metafile outputs: %w", err)
		}
	}

	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if removed[key] || removed[strings.TrimSuffix(key, ".map")] {
			delete(outputs, key)
			continue
		}
		out := outputs[key]
		if raw, ok := out["cssBundle"]; ok {
			var bundle string
			if json.Unmarshal(raw, &bundle) == nil && removed[bundle] {
				delete(out, "cssBundle")
			}
		}
		if raw, ok := out["imports"]; ok {
			var imports []map[string]json.RawMessage
			if err := json.Unmarshal(raw, &imports); err == nil {
				kept := imports[:0]
				for _, imp := range imports {
					var path string
					_ = json.Unmarshal(imp["path"], &path)
					if !removed[path] {
						kept = append(kept, imp)
					}
				}
				b, err := json.Marshal(kept)
				if err != nil {
					return "", err
				}
				out["imports"] = b
			}
		}
		if n, ok := sizes[key]; ok {
			out["bytes"] = json.RawMessage(fmt.Sprint(n))
		}
	}

	b, err := json.Marshal(outputs)
	if err != nil {
		return "", err
	}
	doc["outputs"] = b
	rewritten, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(rewritten), nil
}
