package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

func writeApp(t *testing.T) (src, out string) {
	t.Helper()
	tmp := t.TempDir()
	src = filepath.Join(tmp, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.js"), []byte("import \"./style.css\";\nconsole.log(\"app\");\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "style.css"), []byte("body { color: red; }\n"), 0o644))
	return src, filepath.Join(tmp, "out")
}

func TestRunDualFormat(t *testing.T) {
	src, out := writeApp(t)
	tmpl := filepath.Join(src, "index.html")
	require.NoError(t, os.WriteFile(tmpl, []byte(`<html><head><link rel="stylesheet" href="/main.css"></head><body><script type="module" src="/main.mjs"></script></body></html>`), 0o644))

	err := Run(Args{
		Entries:      []string{filepath.Join(src, "main.js")},
		OutDir:       out,
		Formats:      []string{"esm", "iife"},
		HTMLTemplate: tmpl,
		Inject:       inject.DefaultOptions(),
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	for _, name := range []string{"main.mjs", "main.js"} {
		b, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(b), "color: red", name)
		assert.Contains(t, string(b), "createElement", name)
	}
	_, err = os.Stat(filepath.Join(out, "main.css"))
	assert.True(t, os.IsNotExist(err))

	html, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(html), "stylesheet")
	assert.Contains(t, string(html), `src="/main.mjs"`)
}

func TestRunGeneratedHTML(t *testing.T) {
	src, out := writeApp(t)
	err := Run(Args{
		Entries: []string{filepath.Join(src, "main.js")},
		OutDir:  out,
		HTML:    true,
		Inject:  inject.DefaultOptions(),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	html, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<script type="module" src="main.js"></script>`)
	assert.NotContains(t, string(html), "stylesheet")
}

func TestRunNoEntries(t *testing.T) {
	err := Run(Args{OutDir: t.TempDir()})
	require.Error(t, err)
}

func TestGenerateHTML(t *testing.T) {
	meta := `{"outputs":{
		"dist/main.js":{"imports":[{"path":"dist/chunk-ABC.js","kind":"import-statement"},{"path":"dist/lazy.js","kind":"dynamic-import"}],"entryPoint":"src/main.js"},
		"dist/chunk-ABC.js":{"imports":[]},
		"dist/print.css":{"imports":[]}
	}}`
	doc, err := generateHTML("/work", "dist", "src/main.js", meta, "esm")
	require.NoError(t, err)
	assert.Contains(t, doc, `<link rel="stylesheet" href="print.css">`)
	assert.Contains(t, doc, `<link rel="modulepreload" href="chunk-ABC.js">`)
	assert.NotContains(t, doc, "lazy.js")
	assert.Contains(t, doc, `<script type="module" src="main.js"></script>`)

	doc, err = generateHTML("/work", "/work/dist", "/work/src/main.js", meta, "iife")
	require.NoError(t, err)
	assert.True(t, strings.Contains(doc, `<script src="main.js"></script>`), doc)

	_, err = generateHTML("/work", "dist", "src/other.js", meta, "esm")
	require.Error(t, err)
}
