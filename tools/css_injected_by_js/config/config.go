// Package config loads css_injected_by_js settings from a YAML file and
// turns them, merged with command-line flags, into injector options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "css-injected-by-js.yaml"

// File is the config file format. Every field is optional.
type File struct {
	// TopExecutionPriority places injection code before the chunk code.
	// Defaults to true.
	TopExecutionPriority *bool `yaml:"top_execution_priority,omitempty"`

	StyleID      string `yaml:"style_id,omitempty"`
	UseStrictCSP bool   `yaml:"use_strict_csp,omitempty"`
	// NonceLookup is a JavaScript expression evaluating to the CSP nonce.
	NonceLookup string `yaml:"nonce_lookup,omitempty"`

	// InjectCodeFunction is JavaScript function source called with the CSS
	// text and {styleId, useStrictCSP}. InjectCodeFunctionFile reads it from
	// a file, relative to the config file.
	InjectCodeFunction     string `yaml:"inject_code_function,omitempty"`
	InjectCodeFunctionFile string `yaml:"inject_code_function_file,omitempty"`

	RelativeCSSInjection bool `yaml:"relative_css_injection,omitempty"`

	// JSAssets are globs over output chunk names that receive injection code.
	JSAssets []string `yaml:"js_assets,omitempty"`
	// CSSAssets and CSSExclude are globs over stylesheet names.
	CSSAssets  []string `yaml:"css_assets,omitempty"`
	CSSExclude []string `yaml:"css_exclude,omitempty"`

	SuppressUnusedCSSWarning bool   `yaml:"suppress_unused_css_warning,omitempty"`
	UnusedCSS                string `yaml:"unused_css,omitempty"`

	Debug bool `yaml:"debug,omitempty"`

	dir string
}

// Load reads a config file. An empty path tries DefaultFile and returns a
// zero File if it does not exist.
func Load(path string) (File, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Merge overlays override on f. Set strings and lists replace, booleans
// can only be switched on.
func (f File) Merge(override File) File {
	if override.TopExecutionPriority != nil {
		f.TopExecutionPriority = override.TopExecutionPriority
	}
	if override.StyleID != "" {
		f.StyleID = override.StyleID
	}
	if override.NonceLookup != "" {
		f.NonceLookup = override.NonceLookup
	}
	if override.InjectCodeFunction != "" {
		f.InjectCodeFunction = override.InjectCodeFunction
	}
	if override.InjectCodeFunctionFile != "" {
		f.InjectCodeFunctionFile = override.InjectCodeFunctionFile
		f.dir = override.dir
	}
	if len(override.JSAssets) > 0 {
		f.JSAssets = override.JSAssets
	}
	if len(override.CSSAssets) > 0 {
		f.CSSAssets = override.CSSAssets
	}
	if len(override.CSSExclude) > 0 {
		f.CSSExclude = override.CSSExclude
	}
	if override.UnusedCSS != "" {
		f.UnusedCSS = override.UnusedCSS
	}
	f.UseStrictCSP = f.UseStrictCSP || override.UseStrictCSP
	f.RelativeCSSInjection = f.RelativeCSSInjection || override.RelativeCSSInjection
	f.SuppressUnusedCSSWarning = f.SuppressUnusedCSSWarning || override.SuppressUnusedCSSWarning
	f.Debug = f.Debug || override.Debug
	return f
}

// Options converts f into injector options.
func (f File) Options() (inject.Options, error) {
	opts := inject.DefaultOptions()
	if f.TopExecutionPriority != nil {
		opts.TopExecutionPriority = *f.TopExecutionPriority
	}
	opts.StyleID = f.StyleID
	opts.UseStrictCSP = f.UseStrictCSP
	opts.NonceLookup = f.NonceLookup
	opts.RelativeCSSInjection = f.RelativeCSSInjection
	opts.SuppressUnusedCSSWarning = f.SuppressUnusedCSSWarning
	opts.Debug = opts.Debug || f.Debug

	unused, err := inject.ParseUnusedCSS(f.UnusedCSS)
	if err != nil {
		return opts, err
	}
	opts.UnusedCSS = unused

	opts.InjectCodeFunction = f.InjectCodeFunction
	if f.InjectCodeFunctionFile != "" {
		path := f.InjectCodeFunctionFile
		if !filepath.IsAbs(path) && f.dir != "" {
			path = filepath.Join(f.dir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("failed to read inject code function: %w", err)
		}
		opts.InjectCodeFunction = string(src)
	}

	if opts.JsAssetsFilter, err = ChunkGlobs(f.JSAssets); err != nil {
		return opts, err
	}
	if opts.CssAssetsFilter, err = AssetGlobs(f.CSSAssets, f.CSSExclude); err != nil {
		return opts, err
	}
	return opts, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ChunkGlobs returns a chunk filter accepting names that match any pattern.
// No patterns means no custom filter.
func ChunkGlobs(patterns []string) (inject.ChunkFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	globs, err := compileGlobs(patterns)
	if err != nil {
		return nil, err
	}
	return func(e *inject.OutputEntry) bool { return matchAny(globs, e.FileName) }, nil
}

// AssetGlobs returns a stylesheet filter accepting names that match an
// include pattern (or any name when there are none) and no exclude pattern.
func AssetGlobs(include, exclude []string) (inject.AssetFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}
	return func(e *inject.OutputEntry) bool {
		if len(inc) > 0 && !matchAny(inc, e.FileName) {
			return false
		}
		return !matchAny(exc, e.FileName)
	}, nil
}
