package postbuild

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/common"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

// Args holds the arguments for the postbuild subcommand.
type Args struct {
	Dir      string
	Manifest string
	Target   string
	Minify   bool

	Inject inject.Options
	Logger zerolog.Logger
}

// Run moves the stylesheets of a finished Vite build in Dir into its
// script chunks, using the build manifest for entry and import metadata.
func Run(args Args) error {
	report, err := Process(context.Background(), args)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "\033[33mwarning:\033[0m %s\n", w)
	}
	fmt.Printf("  Injected CSS into %d chunk(s), removed %d stylesheet(s)\n", len(report.Injected), len(report.Removed))
	return nil
}

// Process does the work of Run and returns the injector report.
func Process(ctx context.Context, args Args) (inject.Report, error) {
	manifestPath := args.Manifest
	if manifestPath == "" {
		p, err := FindManifest(args.Dir)
		if err != nil {
			return inject.Report{}, err
		}
		manifestPath = p
	}
	vm, err := ReadManifest(manifestPath)
	if err != nil {
		return inject.Report{}, err
	}
	target, err := common.ParseTarget(args.Target)
	if err != nil {
		return inject.Report{}, err
	}

	m, files, err := load(args.Dir, manifestPath, vm)
	if err != nil {
		return inject.Report{}, err
	}

	compiler := &inject.EsbuildCompiler{
		Snippet: args.Inject.Snippet(),
		Settings: inject.BuildSettings{
			Target:            target,
			MinifyWhitespace:  args.Minify,
			MinifyIdentifiers: args.Minify,
			MinifySyntax:      args.Minify,
		},
	}
	in := inject.NewInjector(args.Inject, args.Logger)
	report, err := in.Process(ctx, m, compiler)
	if err != nil {
		return report, err
	}

	removed := make(map[string]bool)
	for name, original := range files {
		path := filepath.Join(args.Dir, filepath.FromSlash(name))
		e, ok := m.Get(name)
		if !ok {
			removed[name] = true
			if err := os.Remove(path); err != nil {
				return report, fmt.Errorf("failed to remove %s: %w", name, err)
			}
			continue
		}
		contents := e.Source
		if e.Kind == inject.KindChunk {
			contents = []byte(e.Code)
		}
		if string(contents) == string(original) {
			continue
		}
		if err := os.WriteFile(path, contents, 0644); err != nil {
			return report, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	vm.prune(removed)
	if err := vm.Write(manifestPath); err != nil {
		return report, fmt.Errorf("failed to write manifest: %w", err)
	}
	return report, nil
}

// load reads every file under dir into a manifest. Script files named in
// the Vite manifest become chunks with its entry and stylesheet facts.
func load(dir, manifestPath string, vm Manifest) (*inject.Manifest, map[string][]byte, error) {
	byFile := vm.byFile()
	absManifest, _ := filepath.Abs(manifestPath)

	m := inject.NewManifest()
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".vite" {
				return filepath.SkipDir
			}
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absManifest {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[name] = data

		if !isScript(name) {
			m.Add(inject.NewAsset(name, data))
			return nil
		}
		e, ok := byFile[name]
		if !ok {
			m.Add(inject.NewChunk(name, string(data), false, ""))
			return nil
		}
		m.Add(inject.NewChunk(name, string(data), e.IsEntry, e.Src, e.CSS...))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	return m, files, nil
}

func isScript(name string) bool {
	for _, ext := range []string{".js", ".mjs", ".cjs"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
