package inject

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplice(t *testing.T) {
	assert.Equal(t, "YX", Splice("X", "Y", true))
	assert.Equal(t, "XY", Splice("X", "Y", false))
	assert.Equal(t, "X", Splice("X", "", true))
}

func TestSpliceRemovesEmptyCSSComments(t *testing.T) {
	code := "import \"./chunk.js\";/* empty css               */\napp();"
	assert.Equal(t, "Yimport \"./chunk.js\";\napp();", Splice(code, "Y", true))
	assert.Equal(t, "/* keep me */app();Y", Splice("/* keep me */app();", "Y", false))
}

func TestSpliceKeepsOtherEmptyCSSText(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"string literal", `log("/* not an empty css marker */");`, `Ylog("/* not an empty css marker */");`},
		{"user comment", "/* strip empty css files */app();", "Y/* strip empty css files */app();"},
		{"only first placeholder", "/* empty css */a();/* empty css    */b();", "Ya();/* empty css    */b();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Splice(tt.code, "Y", true))
		})
	}
}

type countingCompile struct{ calls int }

func (c *countingCompile) compile(_ context.Context, css string) (string, error) {
	c.calls++
	return "inject(" + css + ");", nil
}

func TestInjectionCache(t *testing.T) {
	ctx := context.Background()
	cache := &InjectionCache{}
	cc := &countingCompile{}

	code, hit, err := cache.Resolve(ctx, "src/main.js", "a{}", cc.compile)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "inject(a{});", code)

	// Same entry, second output format.
	code, hit, err = cache.Resolve(ctx, "src/main.js", "a{}", cc.compile)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "inject(a{});", code)

	// The stylesheets were already consumed by the first format.
	code, hit, err = cache.Resolve(ctx, "src/main.js", "", cc.compile)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "inject(a{});", code)
	assert.Equal(t, 1, cc.calls)

	// A new facade invalidates the cache.
	code, hit, err = cache.Resolve(ctx, "src/other.js", "", cc.compile)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, code)
	assert.Equal(t, "src/other.js", cache.Identity())

	_, _, err = cache.Resolve(ctx, "src/other.js", "b{}", cc.compile)
	require.NoError(t, err)
	assert.Equal(t, 2, cc.calls)

	// Different CSS for the same facade recompiles.
	code, hit, err = cache.Resolve(ctx, "src/other.js", "c{}", cc.compile)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "inject(c{});", code)
	assert.Equal(t, 3, cc.calls)
}

func TestInjectionCacheError(t *testing.T) {
	boom := errors.New("boom")
	cache := &InjectionCache{}
	_, _, err := cache.Resolve(context.Background(), "x", "a{}", func(context.Context, string) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	cc := &countingCompile{}
	_, hit, err := cache.Resolve(context.Background(), "x", "a{}", cc.compile)
	require.NoError(t, err)
	assert.False(t, hit)
}
