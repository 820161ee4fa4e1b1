package inject

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/logging"
)

const (
	// VirtualModuleID is the entry of the nested build that compiles the
	// injection snippet.
	VirtualModuleID = "virtual:css-injected-by-js"
	virtualNS       = "css-injected-by-js"

	// DefaultNonceLookup reads the nonce from <meta property="csp-nonce">.
	DefaultNonceLookup = `document.head.querySelector('meta[property=csp-nonce]')?.content`
)

// InjectOptions is handed to user supplied injection code generators.
type InjectOptions struct {
	StyleID      string `json:"styleId"`
	UseStrictCSP bool   `json:"useStrictCSP"`
}

// InjectCodeFunc generates the runtime snippet. cssLiteral is the CSS text
// already encoded as a JavaScript string literal.
type InjectCodeFunc func(cssLiteral string, opts InjectOptions) string

// Snippet describes how the injection module is generated. The zero value
// produces the default <style> element snippet.
type Snippet struct {
	StyleID string
	// StyleIDFunc, when set, is called on every compile and wins over StyleID.
	StyleIDFunc  func() string
	UseStrictCSP bool
	// NonceLookup is a JavaScript expression yielding the nonce.
	NonceLookup string
	// InjectCode replaces the default snippet generator.
	InjectCode InjectCodeFunc
	// InjectCodeFunction is JavaScript function source, called with the CSS
	// text and an {styleId, useStrictCSP} object. It wins over InjectCode.
	InjectCodeFunction string
}

func (s Snippet) options() InjectOptions {
	id := s.StyleID
	if s.StyleIDFunc != nil {
		id = s.StyleIDFunc()
	}
	return InjectOptions{StyleID: id, UseStrictCSP: s.UseStrictCSP}
}

// Source returns the module text for css, which is trimmed first.
func (s Snippet) Source(css string) string {
	lit := jsString(strings.TrimSpace(css))
	opts := s.options()

	switch {
	case s.InjectCodeFunction != "":
		o, _ := json.Marshal(opts)
		return fmt.Sprintf("(%s)(%s, %s);", strings.TrimSpace(s.InjectCodeFunction), lit, o)
	case s.InjectCode != nil:
		return s.InjectCode(lit, opts)
	}

	var b strings.Builder
	b.WriteString("try{if(typeof document != 'undefined'){var elementStyle = document.createElement('style');")
	if opts.StyleID != "" {
		fmt.Fprintf(&b, "elementStyle.id = %s;", jsString(opts.StyleID))
	}
	if opts.UseStrictCSP {
		lookup := s.NonceLookup
		if lookup == "" {
			lookup = DefaultNonceLookup
		}
		fmt.Fprintf(&b, "elementStyle.nonce = %s;", lookup)
	}
	fmt.Fprintf(&b, "elementStyle.appendChild(document.createTextNode(%s));document.head.appendChild(elementStyle);}}", lit)
	b.WriteString("catch(e){console.error('css-injected-by-js', e);}")
	return b.String()
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Compiler turns CSS text into runtime injection code. An empty result
// means there is nothing to inject.
type Compiler interface {
	Compile(ctx context.Context, css string) (string, error)
}

// BuildSettings are the outer build settings forwarded into the nested build.
type BuildSettings struct {
	Target            api.Target
	Engines           []api.Engine
	MinifyWhitespace  bool
	MinifyIdentifiers bool
	MinifySyntax      bool
	Charset           api.Charset
}

// SettingsFrom copies the relevant fields of an esbuild configuration.
func SettingsFrom(opts *api.BuildOptions) BuildSettings {
	if opts == nil {
		return BuildSettings{}
	}
	return BuildSettings{
		Target:            opts.Target,
		Engines:           append([]api.Engine(nil), opts.Engines...),
		MinifyWhitespace:  opts.MinifyWhitespace,
		MinifyIdentifiers: opts.MinifyIdentifiers,
		MinifySyntax:      opts.MinifySyntax,
		Charset:           opts.Charset,
	}
}

// SubBuildError is returned when the nested build reports errors.
type SubBuildError struct {
	Messages []api.Message
}

func (e *SubBuildError) Error() string {
	texts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		texts = append(texts, m.Text)
	}
	return fmt.Sprintf("compiling CSS injection code failed with %d errors (check the inject code options): %s",
		len(e.Messages), strings.Join(texts, "; "))
}

// EsbuildCompiler compiles the snippet with a nested esbuild build of a
// virtual module, so it is transpiled and minified like the host build.
type EsbuildCompiler struct {
	Snippet  Snippet
	Settings BuildSettings
}

// Compile implements Compiler.
func (c *EsbuildCompiler) Compile(ctx context.Context, css string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	source := c.Snippet.Source(css)
	logging.FromContext(ctx).Debug().Int("css_bytes", len(css)).Msg("compiling injection code")

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{VirtualModuleID},
		Bundle:            true,
		Write:             false,
		Format:            api.FormatIIFE,
		Platform:          api.PlatformBrowser,
		Target:            c.Settings.Target,
		Engines:           c.Settings.Engines,
		MinifyWhitespace:  c.Settings.MinifyWhitespace,
		MinifyIdentifiers: c.Settings.MinifyIdentifiers,
		MinifySyntax:      c.Settings.MinifySyntax,
		Charset:           c.Settings.Charset,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{virtualModulePlugin(source)},
	})
	if len(result.Errors) > 0 {
		return "", &SubBuildError{Messages: result.Errors}
	}
	if len(result.OutputFiles) == 0 {
		return "", nil
	}
	return string(result.OutputFiles[0].Contents), nil
}

// virtualModulePlugin serves source as the contents of VirtualModuleID.
func virtualModulePlugin(source string) api.Plugin {
	return api.Plugin{
		Name: "css-injected-by-js-virtual",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + VirtualModuleID + "$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: virtualNS}, nil
				},
			)
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: virtualNS},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := source
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				},
			)
		},
	}
}
