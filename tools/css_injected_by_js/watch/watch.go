package watch

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/common"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

// Args holds the arguments for the watch subcommand.
type Args struct {
	Entries  []string
	OutDir   string
	Format   string
	Platform string
	Target   string
	Define   []string

	Inject inject.Options
	Logger zerolog.Logger
}

// Options returns the esbuild options for the watched build. The plugin
// writes the outputs itself after every rebuild.
func Options(args Args, plugin *inject.Plugin) (api.BuildOptions, error) {
	target, err := common.ParseTarget(args.Target)
	if err != nil {
		return api.BuildOptions{}, err
	}
	outdir := args.OutDir
	if outdir == "" {
		outdir = "dist"
	}
	return api.BuildOptions{
		EntryPoints: args.Entries,
		Outdir:      outdir,
		Bundle:      true,
		Write:       true,
		Format:      common.ParseFormat(args.Format),
		Platform:    common.ParsePlatform(args.Platform),
		Target:      target,
		LogLevel:    api.LogLevelInfo,
		Loader:      common.Loaders,
		Plugins:     []api.Plugin{common.QueryImportPlugin(), plugin.Esbuild()},
		Define:      common.ParseDefines(args.Define),
		Sourcemap:   api.SourceMapInline,
	}, nil
}

// Run rebuilds the entries on every source change until interrupted.
func Run(args Args) error {
	plugin := inject.NewPlugin(args.Inject, inject.WithLogger(args.Logger))
	opts, err := Options(args, plugin)
	if err != nil {
		return err
	}

	ctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return fmt.Errorf("esbuild context creation failed: %v", ctxErr)
	}
	defer ctx.Dispose()

	if err := ctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("esbuild watch failed: %v", err)
	}

	fmt.Printf("\n  Watching %v, writing to %s\n\n", args.Entries, opts.Outdir)

	// Block until Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	return nil
}
