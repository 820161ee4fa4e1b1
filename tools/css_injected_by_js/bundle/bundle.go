package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/common"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

// Args holds the arguments for the bundle subcommand.
type Args struct {
	Entries      []string
	OutDir       string
	Formats      []string
	Platform     string
	Target       string
	External     []string
	Define       []string
	Minify       bool
	Splitting    bool
	Sourcemap    bool
	HTML         bool
	HTMLTemplate string
	Tsconfig     string

	Inject inject.Options
	Logger zerolog.Logger
}

// Run bundles the entries with esbuild once per output format. All builds
// share one plugin, so a second format reuses the injection code compiled
// for the first.
func Run(args Args) error {
	if len(args.Entries) == 0 {
		return fmt.Errorf("no entry points given")
	}
	formats := args.Formats
	if len(formats) == 0 {
		formats = []string{"esm"}
	}
	target, err := common.ParseTarget(args.Target)
	if err != nil {
		return err
	}
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := os.MkdirAll(args.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	plugin := inject.NewPlugin(args.Inject, inject.WithLogger(args.Logger))

	var htmlMetafile, htmlFormat string
	for _, f := range formats {
		format := common.ParseFormat(f)
		opts := api.BuildOptions{
			AbsWorkingDir:     workDir,
			EntryPoints:       args.Entries,
			Outdir:            args.OutDir,
			Bundle:            true,
			Write:             true,
			Format:            format,
			Platform:          common.ParsePlatform(args.Platform),
			Target:            target,
			LogLevel:          api.LogLevelInfo,
			External:          args.External,
			Loader:            common.Loaders,
			Plugins:           []api.Plugin{common.QueryImportPlugin(), plugin.Esbuild()},
			Define:            common.ParseDefines(args.Define),
			MinifySyntax:      args.Minify,
			MinifyWhitespace:  args.Minify,
			MinifyIdentifiers: args.Minify,
			AssetNames:        "assets/[name]-[hash]",
		}
		if args.Sourcemap {
			opts.Sourcemap = api.SourceMapLinked
		}
		if len(formats) > 1 {
			opts.OutExtension = map[string]string{".js": common.FormatExtension(format)}
		}
		if args.Splitting && format == api.FormatESModule {
			opts.Splitting = true
			opts.ChunkNames = "chunk-[hash]"
		}
		if args.Tsconfig != "" {
			opts.Tsconfig = args.Tsconfig
		}

		result := api.Build(opts)
		if len(result.Errors) > 0 {
			return fmt.Errorf("esbuild bundle (%s) failed with %d errors", f, len(result.Errors))
		}
		if htmlMetafile == "" || format == api.FormatESModule {
			htmlMetafile, htmlFormat = result.Metafile, f
		}
	}

	if !args.HTML && args.HTMLTemplate == "" {
		return nil
	}
	var doc string
	if args.HTMLTemplate != "" {
		tmpl, err := os.ReadFile(args.HTMLTemplate)
		if err != nil {
			return fmt.Errorf("failed to read HTML template: %w", err)
		}
		doc = string(tmpl)
	} else {
		doc, err = generateHTML(workDir, args.OutDir, args.Entries[0], htmlMetafile, htmlFormat)
		if err != nil {
			return fmt.Errorf("failed to generate index.html: %w", err)
		}
	}
	doc = plugin.TransformHTML(doc)
	return os.WriteFile(filepath.Join(args.OutDir, "index.html"), []byte(doc), 0644)
}

// metafileData represents the relevant parts of esbuild's metafile JSON.
type metafileData struct {
	Outputs map[string]struct {
		Imports []struct {
			Path string `json:"path"`
			Kind string `json:"kind"`
		} `json:"imports"`
		EntryPoint string `json:"entryPoint"`
	} `json:"outputs"`
}

// generateHTML builds an index.html for the entry from the esbuild metafile:
// a script tag for the entry chunk, preload hints for its static imports and
// links for any stylesheet still emitted as a file. Metafile paths are
// relative to workDir.
func generateHTML(workDir, outDir, entry, metafile, format string) (string, error) {
	var meta metafileData
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return "", fmt.Errorf("failed to parse metafile: %w", err)
	}

	relKey := func(p string) string {
		if filepath.IsAbs(p) {
			if rel, err := filepath.Rel(workDir, p); err == nil {
				p = rel
			}
		}
		return filepath.ToSlash(filepath.Clean(p))
	}
	prefix := relKey(outDir) + "/"
	entryKey := relKey(entry)

	var entryPath string
	var cssFiles []string
	for path, output := range meta.Outputs {
		rel := strings.TrimPrefix(path, prefix)
		if output.EntryPoint == entryKey && !strings.HasSuffix(rel, ".css") {
			entryPath = rel
		}
		if strings.HasSuffix(rel, ".css") {
			cssFiles = append(cssFiles, rel)
		}
	}
	sort.Strings(cssFiles)

	if entryPath == "" {
		return "", fmt.Errorf("no entry point found in metafile")
	}

	var preloadChunks []string
	if entryOutput, ok := meta.Outputs[prefix+entryPath]; ok {
		for _, imp := range entryOutput.Imports {
			if imp.Kind == "import-statement" {
				preloadChunks = append(preloadChunks, strings.TrimPrefix(imp.Path, prefix))
			}
		}
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n  <meta charset=\"UTF-8\">\n  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	for _, css := range cssFiles {
		fmt.Fprintf(&b, "  <link rel=\"stylesheet\" href=\"%s\">\n", css)
	}
	for _, chunk := range preloadChunks {
		fmt.Fprintf(&b, "  <link rel=\"modulepreload\" href=\"%s\">\n", chunk)
	}
	b.WriteString("</head>\n<body>\n  <div id=\"root\"></div>\n")
	if common.ParseFormat(format) == api.FormatESModule {
		fmt.Fprintf(&b, "  <script type=\"module\" src=\"%s\"></script>\n", entryPath)
	} else {
		fmt.Fprintf(&b, "  <script src=\"%s\"></script>\n", entryPath)
	}
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}
