package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}

func build(dir string, opts inject.Options) api.BuildResult {
	plugin := inject.NewPlugin(opts)
	result := api.Build(api.BuildOptions{
		EntryPoints: []string{filepath.Join(dir, "main.js")},
		Outdir:      filepath.Join(dir, "out"),
		Bundle:      true,
		Splitting:   true,
		Write:       false,
		Format:      api.FormatESModule,
		Platform:    api.PlatformBrowser,
		Target:      api.ESNext,
		LogLevel:    api.LogLevelSilent,
		Plugins:     []api.Plugin{plugin.Esbuild()},
	})
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  error: %s\n", e.Text)
		}
		fail("build had errors")
	}
	return result
}

func outputs(result api.BuildResult) map[string]string {
	files := make(map[string]string)
	for _, f := range result.OutputFiles {
		files[filepath.Base(f.Path)] = string(f.Contents)
	}
	return files
}

func main() {
	tmpDir, err := os.MkdirTemp("", "inject-smoke")
	if err != nil {
		fail("%v", err)
	}
	defer os.RemoveAll(tmpDir)

	sources := map[string]string{
		"main.js":  "import './main.css';\nimport('./lazy.js').then(m => m.run());\n",
		"main.css": ".main { color: red; }\n",
		"lazy.js":  "import './lazy.css';\nexport function run() { console.log('lazy'); }\n",
		"lazy.css": ".lazy { color: blue; }\n",
	}
	for name, content := range sources {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			fail("write %s: %v", name, err)
		}
	}

	// --- Test 1: every stylesheet lands in the entry chunk ---

	files := outputs(build(tmpDir, inject.DefaultOptions()))
	for name := range files {
		if strings.HasSuffix(name, ".css") {
			fail("test 1: stylesheet %s should have been removed", name)
		}
	}
	entry, ok := files["main.js"]
	if !ok {
		fail("test 1: no main.js in output")
	}
	for _, rule := range []string{".main", ".lazy"} {
		if !strings.Contains(entry, rule) {
			fail("test 1: expected %q injected into main.js", rule)
		}
	}
	if !strings.Contains(entry, "document.createElement") {
		fail("test 1: expected injection code in main.js")
	}
	fmt.Println("  PASS: test 1: global injection into the entry chunk")

	// --- Test 2: relative mode keeps each chunk's CSS with it ---

	opts := inject.DefaultOptions()
	opts.RelativeCSSInjection = true
	files = outputs(build(tmpDir, opts))
	if strings.Contains(files["main.js"], ".lazy") {
		fail("test 2: main.js should not carry the lazy chunk's CSS")
	}
	if !strings.Contains(files["main.js"], ".main") {
		fail("test 2: expected .main injected into main.js")
	}
	var lazy string
	for name, content := range files {
		if strings.HasPrefix(name, "lazy") && strings.HasSuffix(name, ".js") {
			lazy = content
		}
	}
	if !strings.Contains(lazy, ".lazy") {
		fail("test 2: expected .lazy injected into the lazy chunk")
	}
	fmt.Println("  PASS: test 2: relative injection per chunk")

	// --- Test 3: style id and bottom placement ---

	opts = inject.DefaultOptions()
	opts.StyleID = "smoke-style"
	opts.TopExecutionPriority = false
	files = outputs(build(tmpDir, opts))
	entry = files["main.js"]
	if !strings.Contains(entry, `"smoke-style"`) {
		fail("test 3: expected style id in injection code")
	}
	if strings.Index(entry, "createElement") < strings.Index(entry, "import(") {
		fail("test 3: injection code should follow the chunk code")
	}
	fmt.Println("  PASS: test 3: style id and bottom placement")

	fmt.Println("All tests passed")
}
