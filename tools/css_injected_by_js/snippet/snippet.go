package snippet

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/common"
	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

// Args holds the arguments for the snippet subcommand.
type Args struct {
	CSS    string
	Out    string
	Target string
	Minify bool

	Inject inject.Options
}

// Run compiles a stylesheet into the injection snippet, written to Out or
// stdout.
func Run(args Args) error {
	css, err := os.ReadFile(args.CSS)
	if err != nil {
		return fmt.Errorf("failed to read stylesheet: %w", err)
	}
	target, err := common.ParseTarget(args.Target)
	if err != nil {
		return err
	}

	text := string(css)
	if args.Inject.PreRenderCSS != nil {
		text = args.Inject.PreRenderCSS(text)
	}
	c := &inject.EsbuildCompiler{
		Snippet: args.Inject.Snippet(),
		Settings: inject.BuildSettings{
			Target:            target,
			MinifyWhitespace:  args.Minify,
			MinifyIdentifiers: args.Minify,
			MinifySyntax:      args.Minify,
		},
	}
	code, err := c.Compile(context.Background(), text)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if args.Out != "" {
		f, err := os.Create(args.Out)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	_, err = io.WriteString(w, code)
	return err
}
