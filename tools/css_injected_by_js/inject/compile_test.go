package inject

import (
	"context"
	"errors"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetSource(t *testing.T) {
	src := Snippet{}.Source("  body{color:red}\n")
	assert.Equal(t, `try{if(typeof document != 'undefined'){var elementStyle = document.createElement('style');`+
		`elementStyle.appendChild(document.createTextNode("body{color:red}"));document.head.appendChild(elementStyle);}}`+
		`catch(e){console.error('css-injected-by-js', e);}`, src)
}

func TestSnippetSourceOptions(t *testing.T) {
	src := Snippet{StyleID: "app-style", UseStrictCSP: true}.Source(`a::after{content:"<b>"}`)
	assert.Contains(t, src, `elementStyle.id = "app-style";`)
	assert.Contains(t, src, "elementStyle.nonce = "+DefaultNonceLookup+";")
	assert.Contains(t, src, `document.createTextNode("a::after{content:\"<b>\"}")`)

	src = Snippet{UseStrictCSP: true, NonceLookup: "window.__nonce"}.Source("a{}")
	assert.Contains(t, src, "elementStyle.nonce = window.__nonce;")

	n := 0
	s := Snippet{StyleID: "ignored", StyleIDFunc: func() string { n++; return "dynamic" }}
	assert.Contains(t, s.Source("a{}"), `elementStyle.id = "dynamic";`)
	s.Source("a{}")
	assert.Equal(t, 2, n)
}

func TestSnippetSourceOverrides(t *testing.T) {
	s := Snippet{
		StyleID:            "x",
		InjectCodeFunction: "function (css, options) { window.__css = css; }\n",
	}
	assert.Equal(t, `(function (css, options) { window.__css = css; })("a{}", {"styleId":"x","useStrictCSP":false});`, s.Source(" a{} "))

	s = Snippet{InjectCode: func(css string, opts InjectOptions) string {
		return "window.__css = " + css + ";"
	}}
	assert.Equal(t, `window.__css = "a{}";`, s.Source("a{}"))
}

func TestEsbuildCompiler(t *testing.T) {
	c := &EsbuildCompiler{Snippet: Snippet{StyleID: "app-style", UseStrictCSP: true}}
	code, err := c.Compile(context.Background(), "body{color:red}")
	require.NoError(t, err)
	assert.Contains(t, code, `document.createElement("style")`)
	assert.Contains(t, code, `"body{color:red}"`)
	assert.Contains(t, code, `"app-style"`)
	assert.Contains(t, code, `meta[property=csp-nonce]`)
	assert.Contains(t, code, "?.content")
	assert.Contains(t, code, "console.error")
}

func TestEsbuildCompilerForwardsSettings(t *testing.T) {
	c := &EsbuildCompiler{
		Snippet: Snippet{UseStrictCSP: true},
		Settings: BuildSettings{
			Target:            api.ES2015,
			MinifyWhitespace:  true,
			MinifyIdentifiers: true,
			MinifySyntax:      true,
		},
	}
	code, err := c.Compile(context.Background(), "body{color:red}")
	require.NoError(t, err)
	assert.NotContains(t, code, "?.", "optional chaining should be lowered for es2015")
	assert.NotContains(t, code, "elementStyle")
	assert.Contains(t, code, "body{color:red}")
}

func TestEsbuildCompilerCustomFunction(t *testing.T) {
	c := &EsbuildCompiler{Snippet: Snippet{
		StyleID:            "x",
		InjectCodeFunction: "function (css, options) { window.__css = css; window.__opts = options; }",
	}}
	code, err := c.Compile(context.Background(), "a{}")
	require.NoError(t, err)
	assert.Contains(t, code, "window.__css = css")
	assert.Contains(t, code, `"a{}"`)
	assert.Contains(t, code, "styleId")
	assert.NotContains(t, code, "createElement")
}

func TestEsbuildCompilerSubBuildError(t *testing.T) {
	c := &EsbuildCompiler{Snippet: Snippet{InjectCode: func(string, InjectOptions) string {
		return "this is not ((( javascript"
	}}}
	_, err := c.Compile(context.Background(), "a{}")
	require.Error(t, err)
	var sbe *SubBuildError
	require.True(t, errors.As(err, &sbe))
	assert.NotEmpty(t, sbe.Messages)
}

func TestEsbuildCompilerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&EsbuildCompiler{}).Compile(ctx, "a{}")
	require.ErrorIs(t, err, context.Canceled)
}
