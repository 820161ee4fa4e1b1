package inject

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/logging"
)

// Report summarizes one Process call.
type Report struct {
	Warnings []string
	// Injected lists the chunks whose code received injection code.
	Injected []string
	// Removed lists the stylesheets taken out of the manifest.
	Removed []string
	// CompileHit is set when global mode reused cached injection code.
	CompileHit bool
}

// Injector moves stylesheet outputs into script chunks. It owns the source
// and injection caches, so one Injector should serve every build of the
// same logical entry.
type Injector struct {
	opts    Options
	log     zerolog.Logger
	sources *SourceCache
	cache   *InjectionCache

	mu           sync.Mutex
	internalized map[string]bool
}

// NewInjector returns an Injector for opts.
func NewInjector(opts Options, log zerolog.Logger) *Injector {
	if opts.Debug && log.GetLevel() > zerolog.DebugLevel {
		log = log.Level(zerolog.DebugLevel)
	}
	if opts.UnusedCSS == "" {
		opts.UnusedCSS = UnusedCSSKeep
	}
	return &Injector{
		opts:         opts,
		log:          log.With().Str("component", "css-injected-by-js").Logger(),
		sources:      NewSourceCache(),
		cache:        &InjectionCache{},
		internalized: make(map[string]bool),
	}
}

// Options returns the options the injector was built with.
func (in *Injector) Options() Options { return in.opts }

// Internalized returns every stylesheet removed so far, sorted.
func (in *Injector) Internalized() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	names := make([]string, 0, len(in.internalized))
	for n := range in.internalized {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Process rewrites m in place: stylesheets are moved into script chunks,
// links to them are dropped from HTML outputs and chunk metadata no longer
// references them. A nil compiler uses esbuild with default settings.
func (in *Injector) Process(ctx context.Context, m *Manifest, c Compiler) (Report, error) {
	if c == nil {
		c = &EsbuildCompiler{Snippet: in.opts.Snippet()}
	}
	in.log.Debug().Strs("outputs", m.Names()).Bool("relative", in.opts.RelativeCSSInjection).Msg("processing bundle")
	ctx = logging.WithContext(ctx, in.log)

	var (
		report Report
		err    error
	)
	if in.opts.RelativeCSSInjection {
		report, err = in.relative(ctx, m, c)
	} else {
		report, err = in.global(ctx, m, c)
	}
	if err != nil {
		return report, err
	}

	in.mu.Lock()
	for _, n := range report.Removed {
		in.internalized[n] = true
	}
	in.mu.Unlock()

	in.stripHTML(m, report.Removed)
	in.pruneImportedCSS(m)

	for _, w := range report.Warnings {
		in.log.Warn().Msg(w)
	}
	return report, nil
}

func (in *Injector) global(ctx context.Context, m *Manifest, c Compiler) (Report, error) {
	var report Report

	sel, err := SelectTargets(m, in.opts.JsAssetsFilter)
	if err != nil {
		return report, err
	}
	if w := sel.Warning(); w != "" {
		report.Warnings = append(report.Warnings, w)
	}
	in.log.Debug().Strs("candidates", fileNames(sel.Candidates)).Strs("targets", fileNames(sel.Targets)).Msg("selected injection targets")

	sheets := stylesheetNames(m, in.opts.CssAssetsFilter)
	in.log.Debug().Strs("stylesheets", sheets).Msg("global stylesheets")

	css := in.sources.ConcatAndRemove(m, sheets)
	report.Removed = sheets
	if css != "" && in.opts.PreRenderCSS != nil {
		css = in.opts.PreRenderCSS(css)
	}

	identity := facadeIdentity(sel.Targets)
	code, hit, err := in.cache.Resolve(ctx, identity, css, c.Compile)
	if err != nil {
		return report, err
	}
	report.CompileHit = hit
	in.log.Debug().Str("facade", identity).Bool("cached", hit).Msg("resolved injection code")

	for _, t := range sel.Targets {
		in.splice(m, t.FileName, code)
		report.Injected = append(report.Injected, t.FileName)
	}
	return report, nil
}

func (in *Injector) relative(ctx context.Context, m *Manifest, c Compiler) (Report, error) {
	var report Report

	classified := stylesheetNames(m, in.opts.CssAssetsFilter)
	isSheet := func(name string) bool {
		e, ok := m.Get(name)
		return ok && IsStylesheetAsset(e, in.opts.CssAssetsFilter)
	}
	styles, err := BuildJsCssMap(m, in.opts.JsAssetsFilter, isSheet)
	if err != nil {
		return report, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, cs := range styles {
		in.log.Debug().Str("chunk", cs.Chunk).Strs("stylesheets", cs.Stylesheets).Msg("relative mapping")
		g.Go(func() error {
			css := in.sources.ConcatAndRemove(m, cs.Stylesheets)
			if css != "" && in.opts.PreRenderCSS != nil {
				css = in.opts.PreRenderCSS(css)
			}
			var code string
			if strings.TrimSpace(css) != "" {
				var err error
				cctx := logging.WithChunk(gctx, cs.Chunk)
				if code, err = c.Compile(cctx, css); err != nil {
					return fmt.Errorf("compiling injection code for %s: %w", cs.Chunk, err)
				}
			}
			in.splice(m, cs.Chunk, code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	used := claimed(styles)
	for _, cs := range styles {
		report.Injected = append(report.Injected, cs.Chunk)
	}
	for _, name := range classified {
		if used[name] {
			report.Removed = append(report.Removed, name)
			continue
		}
		if !in.opts.SuppressUnusedCSSWarning {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"stylesheet %s is not imported by any chunk selected for injection and was %s; adjust the JS assets filter or set suppressUnusedCssWarning",
				name, unusedAction(in.opts.UnusedCSS)))
		}
		if in.opts.UnusedCSS == UnusedCSSRemove {
			in.sources.Extract(m, name)
			m.Delete(name)
			report.Removed = append(report.Removed, name)
		}
	}
	return report, nil
}

func unusedAction(mode UnusedCSS) string {
	if mode == UnusedCSSRemove {
		return "removed"
	}
	return "left as a separate file"
}

func (in *Injector) splice(m *Manifest, chunk, code string) {
	e, ok := m.Get(chunk)
	if !ok {
		return
	}
	m.SetCode(chunk, Splice(e.Code, code, in.opts.TopExecutionPriority))
}

// stripHTML removes links to the removed stylesheets from HTML outputs.
func (in *Injector) stripHTML(m *Manifest, removed []string) {
	if len(removed) == 0 {
		return
	}
	for _, e := range m.Entries() {
		if !IsHTMLDocument(e) || e.Kind != KindAsset {
			continue
		}
		doc := RemoveLinkStylesheets(string(e.Source), removed)
		if doc != string(e.Source) {
			in.log.Debug().Str("html", e.FileName).Msg("removed stylesheet links")
			m.Add(NewAsset(e.FileName, []byte(doc)))
		}
	}
}

// pruneImportedCSS drops references to stylesheets that are no longer
// part of the manifest.
func (in *Injector) pruneImportedCSS(m *Manifest) {
	for _, e := range m.Entries() {
		if e.Kind != KindChunk || len(e.ImportedCSS) == 0 {
			continue
		}
		kept := e.ImportedCSS[:0:0]
		for _, name := range e.ImportedCSS {
			if _, ok := m.Get(name); ok {
				kept = append(kept, name)
			}
		}
		e.ImportedCSS = kept
	}
}

// TransformHTML strips links to every stylesheet this injector has removed.
func (in *Injector) TransformHTML(doc string) string {
	return RemoveLinkStylesheets(doc, in.Internalized())
}

// facadeIdentity ties the targets back to their source entry modules.
func facadeIdentity(targets []*OutputEntry) string {
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		id := t.FacadeModuleID
		if id == "" {
			id = t.FileName
		}
		ids = append(ids, id)
	}
	return strings.Join(ids, "\x00")
}
