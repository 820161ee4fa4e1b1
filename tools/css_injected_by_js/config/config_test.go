package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco-prontera/vite-plugin-css-injected-by-js/tools/css_injected_by_js/inject"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inject.js"), []byte("function (css) {}"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`
top_execution_priority: false
style_id: app-style
use_strict_csp: true
inject_code_function_file: inject.js
relative_css_injection: true
js_assets: ["assets/*.js"]
css_exclude: ["**/print-*.css"]
unused_css: remove
`), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	opts, err := f.Options()
	require.NoError(t, err)

	assert.False(t, opts.TopExecutionPriority)
	assert.Equal(t, "app-style", opts.StyleID)
	assert.True(t, opts.UseStrictCSP)
	assert.True(t, opts.RelativeCSSInjection)
	assert.Equal(t, "function (css) {}", opts.InjectCodeFunction)
	assert.Equal(t, inject.UnusedCSSRemove, opts.UnusedCSS)

	require.NotNil(t, opts.JsAssetsFilter)
	assert.True(t, opts.JsAssetsFilter(inject.NewChunk("assets/index.js", "", true, "")))
	assert.False(t, opts.JsAssetsFilter(inject.NewChunk("assets/nested/index.js", "", true, "")))

	require.NotNil(t, opts.CssAssetsFilter)
	assert.True(t, opts.CssAssetsFilter(inject.NewAsset("assets/index.css", nil)))
	assert.False(t, opts.CssAssetsFilter(inject.NewAsset("assets/print-a.css", nil)))
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	f, err := Load("")
	require.NoError(t, err)
	opts, err := f.Options()
	require.NoError(t, err)
	assert.True(t, opts.TopExecutionPriority)
	assert.Equal(t, inject.UnusedCSSKeep, opts.UnusedCSS)
	assert.Nil(t, opts.JsAssetsFilter)
	assert.Nil(t, opts.CssAssetsFilter)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("style_id: [unterminated"), 0o644))
	_, err = Load(path)
	require.Error(t, err)

	_, err = File{UnusedCSS: "shred"}.Options()
	require.Error(t, err)

	_, err = File{JSAssets: []string{"[abc"}}.Options()
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	no := false
	base := File{StyleID: "base", JSAssets: []string{"a.js"}, UseStrictCSP: true}
	got := base.Merge(File{StyleID: "cli", TopExecutionPriority: &no, RelativeCSSInjection: true})
	assert.Equal(t, "cli", got.StyleID)
	assert.Equal(t, []string{"a.js"}, got.JSAssets)
	assert.True(t, got.UseStrictCSP)
	assert.True(t, got.RelativeCSSInjection)
	require.NotNil(t, got.TopExecutionPriority)
	assert.False(t, *got.TopExecutionPriority)
}
