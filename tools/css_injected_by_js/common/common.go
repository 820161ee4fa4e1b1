package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Loaders maps file extensions to esbuild loaders.
var Loaders = map[string]api.Loader{
	".js":    api.LoaderJS,
	".jsx":   api.LoaderJSX,
	".ts":    api.LoaderTS,
	".tsx":   api.LoaderTSX,
	".json":  api.LoaderJSON,
	".css":   api.LoaderCSS,
	".mjs":   api.LoaderJS,
	".cjs":   api.LoaderJS,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".eot":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".gif":   api.LoaderFile,
}

// ParseFormat converts a format string to an esbuild Format constant.
func ParseFormat(f string) api.Format {
	switch f {
	case "cjs":
		return api.FormatCommonJS
	case "iife":
		return api.FormatIIFE
	default:
		return api.FormatESModule
	}
}

// FormatExtension is the output extension used when several formats are
// built side by side.
func FormatExtension(f api.Format) string {
	switch f {
	case api.FormatCommonJS:
		return ".cjs"
	case api.FormatESModule:
		return ".mjs"
	default:
		return ".js"
	}
}

// ParsePlatform converts a platform string to an esbuild Platform constant.
func ParsePlatform(p string) api.Platform {
	switch p {
	case "node":
		return api.PlatformNode
	default:
		return api.PlatformBrowser
	}
}

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

// ParseTarget converts an ES version such as "es2020" to an esbuild Target.
func ParseTarget(t string) (api.Target, error) {
	if t == "" {
		return api.ESNext, nil
	}
	if target, ok := targets[strings.ToLower(t)]; ok {
		return target, nil
	}
	return api.DefaultTarget, fmt.Errorf("unknown target %q", t)
}

// ParseDefines converts key=value pairs into esbuild defines.
func ParseDefines(defs []string) map[string]string {
	define := make(map[string]string, len(defs))
	for _, d := range defs {
		k, v, ok := strings.Cut(d, "=")
		if !ok {
			continue
		}
		define[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return define
}

const queryTextNamespace = "query-text"

// QueryImportPlugin returns an esbuild plugin that loads imports ending in
// ?raw or ?inline as strings. A stylesheet imported as
// "./widget.css?inline" then stays a JS string for shadow roots instead of
// becoming a stylesheet output.
func QueryImportPlugin() api.Plugin {
	return api.Plugin{
		Name: "query-import",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `\?(raw|inline)$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					cleanPath := args.Path[:strings.LastIndexByte(args.Path, '?')]
					resolved := cleanPath
					if !filepath.IsAbs(resolved) {
						resolved = filepath.Join(args.ResolveDir, cleanPath)
					}
					return api.OnResolveResult{
						Path:      resolved,
						Namespace: queryTextNamespace,
					}, nil
				},
			)
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: queryTextNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					content, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					text := string(content)
					return api.OnLoadResult{
						Contents:   &text,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     api.LoaderText,
						WatchFiles: []string{args.Path},
					}, nil
				},
			)
		},
	}
}
