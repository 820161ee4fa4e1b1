package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    api.Target
		wantErr bool
	}{
		{"", api.ESNext, false},
		{"esnext", api.ESNext, false},
		{"ES2020", api.ES2020, false},
		{"es2015", api.ES2015, false},
		{"es1999", api.DefaultTarget, true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDefines(t *testing.T) {
	got := ParseDefines([]string{`process.env.NODE_ENV="production"`, "DEBUG = false", "broken"})
	assert.Equal(t, map[string]string{
		"process.env.NODE_ENV": `"production"`,
		"DEBUG":                "false",
	}, got)
}

func TestFormatExtension(t *testing.T) {
	assert.Equal(t, ".mjs", FormatExtension(ParseFormat("esm")))
	assert.Equal(t, ".cjs", FormatExtension(ParseFormat("cjs")))
	assert.Equal(t, ".js", FormatExtension(ParseFormat("iife")))
}

func TestQueryImportPlugin(t *testing.T) {
	tmp := t.TempDir()
	entry := filepath.Join(tmp, "entry.js")
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "widget.css"), []byte(".widget { color: teal; }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "note.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(entry, []byte(
		`import css from "./widget.css?inline";`+"\n"+
			`import note from "./note.txt?raw";`+"\n"+
			`console.log(css, note);`+"\n",
	), 0o644))

	result := api.Build(api.BuildOptions{
		EntryPoints: []string{entry},
		Outdir:      filepath.Join(tmp, "out"),
		Bundle:      true,
		Write:       false,
		Format:      api.FormatESModule,
		Loader:      Loaders,
		LogLevel:    api.LogLevelSilent,
		Plugins:     []api.Plugin{QueryImportPlugin()},
	})
	require.Empty(t, result.Errors)
	require.Len(t, result.OutputFiles, 1, "the ?inline stylesheet must not produce a .css output")

	output := string(result.OutputFiles[0].Contents)
	assert.True(t, strings.HasSuffix(result.OutputFiles[0].Path, ".js"))
	assert.Contains(t, output, ".widget { color: teal; }")
	assert.Contains(t, output, `"hello"`)
}
