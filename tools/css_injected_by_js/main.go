package main

import (
	"log"
	"os"

	"github.com/rs/zerolog"
	"github.com/thought-machine/go-flags"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/bundle"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/config"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/logging"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/postbuild"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/snippet"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/watch"
)

// injectFlags are shared by every subcommand that injects CSS.
type injectFlags struct {
	Config             string   `short:"c" long:"config" description:"YAML config file (default: ./css-injected-by-js.yaml if present)"`
	Relative           bool     `long:"relative" description:"Inject into every chunk only the CSS it imports"`
	Bottom             bool     `long:"bottom" description:"Run the injection code after the chunk code instead of before"`
	StyleID            string   `long:"style-id" description:"id attribute of the injected <style> element"`
	StrictCSP          bool     `long:"strict-csp" description:"Copy the CSP nonce from <meta property=csp-nonce> to the <style> element"`
	NonceLookup        string   `long:"nonce-lookup" description:"JavaScript expression that yields the CSP nonce"`
	InjectFunctionFile string   `long:"inject-function-file" description:"File with a JavaScript function (css, {styleId, useStrictCSP}) that injects the CSS"`
	JSFilter           []string `long:"js-filter" description:"Glob of output chunks that receive the CSS (repeatable)"`
	CSSFilter          []string `long:"css-filter" description:"Glob of stylesheets to inject (repeatable)"`
	CSSExclude         []string `long:"css-exclude" description:"Glob of stylesheets to leave as files (repeatable)"`
	UnusedCSS          string   `long:"unused-css" choice:"keep" choice:"remove" description:"What to do with stylesheets no chunk imports in relative mode"`
	SuppressUnusedCSS  bool     `long:"suppress-unused-css-warning" description:"Do not warn about stylesheets no chunk imports"`
	Debug              bool     `long:"debug" description:"Trace classification and mapping decisions (also CSS_INJECTED_BY_JS_DEBUG=<any value>)"`
}

var opts = struct {
	Usage string

	Bundle struct {
		Entry        []string `short:"e" long:"entry" required:"true" description:"Entry point file (repeatable)"`
		OutDir       string   `short:"o" long:"out-dir" default:"dist" description:"Output directory"`
		Format       []string `short:"f" long:"format" description:"Output format: esm, cjs, iife (repeatable, default esm)"`
		Platform     string   `short:"p" long:"platform" default:"browser" description:"Target platform: browser, node"`
		Target       string   `short:"t" long:"target" default:"esnext" description:"Target ES version"`
		External     []string `long:"external" description:"External packages to exclude from bundle"`
		Define       []string `long:"define" description:"Define substitutions (key=value)"`
		Minify       bool     `long:"minify" description:"Minify output (syntax, whitespace, identifiers)"`
		Splitting    bool     `long:"splitting" description:"Enable code splitting (esm only)"`
		Sourcemap    bool     `long:"sourcemap" description:"Emit linked source maps"`
		HTML         bool     `long:"html" description:"Generate index.html from the metafile"`
		HTMLTemplate string   `long:"html-template" description:"HTML file to copy into the output with internalized stylesheet links removed"`
		Tsconfig     string   `long:"tsconfig" description:"Path to tsconfig.json (for JSX settings, paths, etc.)"`
		Inject       injectFlags `group:"Injection Options"`
	} `command:"bundle" alias:"b" description:"Bundle with esbuild and inject the CSS into the JavaScript output"`

	Watch struct {
		Entry    []string    `short:"e" long:"entry" required:"true" description:"Entry point file (repeatable)"`
		OutDir   string      `short:"o" long:"out-dir" default:"dist" description:"Output directory"`
		Format   string      `short:"f" long:"format" default:"esm" description:"Output format: esm, cjs, iife"`
		Platform string      `long:"platform" default:"browser" description:"Target platform: browser, node"`
		Target   string      `short:"t" long:"target" default:"esnext" description:"Target ES version"`
		Define   []string    `long:"define" description:"Define substitutions (key=value)"`
		Inject   injectFlags `group:"Injection Options"`
	} `command:"watch" alias:"w" description:"Rebuild and inject on every source change"`

	Postbuild struct {
		Dir      string      `short:"d" long:"dir" default:"dist" description:"Vite output directory"`
		Manifest string      `short:"m" long:"manifest" description:"Vite manifest (default: <dir>/.vite/manifest.json or <dir>/manifest.json)"`
		Target   string      `short:"t" long:"target" default:"esnext" description:"Target ES version of the injection code"`
		Minify   bool        `long:"minify" description:"Minify the injection code"`
		Inject   injectFlags `group:"Injection Options"`
	} `command:"postbuild" alias:"p" description:"Inject the CSS of a finished Vite build into its JavaScript chunks"`

	Snippet struct {
		Out    string      `short:"o" long:"out" description:"Output file (default: stdout)"`
		Target string      `short:"t" long:"target" default:"esnext" description:"Target ES version"`
		Minify bool        `long:"minify" description:"Minify the snippet"`
		Inject injectFlags `group:"Injection Options"`
		Args   struct {
			CSS string `positional-arg-name:"css" required:"true" description:"Stylesheet to compile"`
		} `positional-args:"true"`
	} `command:"snippet" alias:"s" description:"Print the injection code for a stylesheet"`
}{
	Usage: `
css_injected_by_js moves the CSS of a JavaScript build into the JavaScript
itself, so it is applied at runtime by an injected <style> element.

It provides four operations:
  - bundle:    Bundle with esbuild and inject the CSS into the output chunks
  - watch:     Same as bundle, rebuilding on every change
  - postbuild: Rewrite a finished Vite build using its manifest
  - snippet:   Compile a stylesheet into the standalone injection code
`,
}

// injectOptions merges the config file with the command-line flags.
func injectOptions(f injectFlags) (inject.Options, zerolog.Logger) {
	file, err := config.Load(f.Config)
	if err != nil {
		log.Fatal(err)
	}
	var top *bool
	if f.Bottom {
		no := false
		top = &no
	}
	file = file.Merge(config.File{
		TopExecutionPriority:     top,
		StyleID:                  f.StyleID,
		UseStrictCSP:             f.StrictCSP,
		NonceLookup:              f.NonceLookup,
		InjectCodeFunctionFile:   f.InjectFunctionFile,
		RelativeCSSInjection:     f.Relative,
		JSAssets:                 f.JSFilter,
		CSSAssets:                f.CSSFilter,
		CSSExclude:               f.CSSExclude,
		UnusedCSS:                f.UnusedCSS,
		SuppressUnusedCSSWarning: f.SuppressUnusedCSS,
		Debug:                    f.Debug,
	})
	o, err := file.Options()
	if err != nil {
		log.Fatal(err)
	}
	return o, logging.NewFromEnv()
}

var subCommands = map[string]func() int{
	"bundle": func() int {
		injectOpts, logger := injectOptions(opts.Bundle.Inject)
		if err := bundle.Run(bundle.Args{
			Entries:      opts.Bundle.Entry,
			OutDir:       opts.Bundle.OutDir,
			Formats:      opts.Bundle.Format,
			Platform:     opts.Bundle.Platform,
			Target:       opts.Bundle.Target,
			External:     opts.Bundle.External,
			Define:       opts.Bundle.Define,
			Minify:       opts.Bundle.Minify,
			Splitting:    opts.Bundle.Splitting,
			Sourcemap:    opts.Bundle.Sourcemap,
			HTML:         opts.Bundle.HTML,
			HTMLTemplate: opts.Bundle.HTMLTemplate,
			Tsconfig:     opts.Bundle.Tsconfig,
			Inject:       injectOpts,
			Logger:       logger,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
	"watch": func() int {
		injectOpts, logger := injectOptions(opts.Watch.Inject)
		if err := watch.Run(watch.Args{
			Entries:  opts.Watch.Entry,
			OutDir:   opts.Watch.OutDir,
			Format:   opts.Watch.Format,
			Platform: opts.Watch.Platform,
			Target:   opts.Watch.Target,
			Define:   opts.Watch.Define,
			Inject:   injectOpts,
			Logger:   logger,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
	"postbuild": func() int {
		injectOpts, logger := injectOptions(opts.Postbuild.Inject)
		if err := postbuild.Run(postbuild.Args{
			Dir:      opts.Postbuild.Dir,
			Manifest: opts.Postbuild.Manifest,
			Target:   opts.Postbuild.Target,
			Minify:   opts.Postbuild.Minify,
			Inject:   injectOpts,
			Logger:   logger,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
	"snippet": func() int {
		injectOpts, _ := injectOptions(opts.Snippet.Inject)
		if err := snippet.Run(snippet.Args{
			CSS:    opts.Snippet.Args.CSS,
			Out:    opts.Snippet.Out,
			Target: opts.Snippet.Target,
			Minify: opts.Snippet.Minify,
			Inject: injectOpts,
		}); err != nil {
			log.Fatal(err)
		}
		return 0
	},
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	if p.Active == nil {
		p.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	os.Exit(subCommands[p.Active.Name]())
}
