package inject

import (
	"fmt"
	"os"
)

// DebugEnv enables debug tracing of classification and mapping decisions.
const DebugEnv = "CSS_INJECTED_BY_JS_DEBUG"

// UnusedCSS controls what happens to stylesheets that no chunk imports in
// relative mode.
type UnusedCSS string

const (
	// UnusedCSSKeep leaves the stylesheet emitted and linked.
	UnusedCSSKeep UnusedCSS = "keep"
	// UnusedCSSRemove drops the stylesheet from the output.
	UnusedCSSRemove UnusedCSS = "remove"
)

// ParseUnusedCSS converts a flag value into an UnusedCSS mode.
func ParseUnusedCSS(s string) (UnusedCSS, error) {
	switch UnusedCSS(s) {
	case "", UnusedCSSKeep:
		return UnusedCSSKeep, nil
	case UnusedCSSRemove:
		return UnusedCSSRemove, nil
	}
	return "", fmt.Errorf("unknown unused CSS mode %q, want %q or %q", s, UnusedCSSKeep, UnusedCSSRemove)
}

// Options configures the injector.
type Options struct {
	// TopExecutionPriority places the injection code before the chunk code.
	TopExecutionPriority bool
	StyleID              string
	StyleIDFunc          func() string
	UseStrictCSP         bool
	NonceLookup          string
	InjectCode           InjectCodeFunc
	InjectCodeFunction   string

	// RelativeCSSInjection gives every chunk only the CSS it imports.
	RelativeCSSInjection bool
	JsAssetsFilter       ChunkFilter
	CssAssetsFilter      AssetFilter
	// PreRenderCSS transforms the concatenated CSS before it is compiled.
	PreRenderCSS func(css string) string

	SuppressUnusedCSSWarning bool
	UnusedCSS                UnusedCSS

	Debug bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TopExecutionPriority: true,
		UnusedCSS:            UnusedCSSKeep,
		Debug:                os.Getenv(DebugEnv) != "",
	}
}

// Snippet returns the snippet configuration described by o.
func (o Options) Snippet() Snippet {
	return Snippet{
		StyleID:            o.StyleID,
		StyleIDFunc:        o.StyleIDFunc,
		UseStrictCSP:       o.UseStrictCSP,
		NonceLookup:        o.NonceLookup,
		InjectCode:         o.InjectCode,
		InjectCodeFunction: o.InjectCodeFunction,
	}
}
