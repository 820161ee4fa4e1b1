package inject

import (
	"context"
	"regexp"
	"sync"
)

// emptyCSSRe matches the padded `/* empty css */` placeholder Vite leaves
// where a chunk imported a stylesheet.
var emptyCSSRe = regexp.MustCompile(`/\* empty css *\*/`)

// Splice joins injection code with chunk code. With top set the injection
// runs before the chunk's own code. The first empty css placeholder is
// dropped.
func Splice(chunkCode, injectionCode string, top bool) string {
	if loc := emptyCSSRe.FindStringIndex(chunkCode); loc != nil {
		chunkCode = chunkCode[:loc[0]] + chunkCode[loc[1]:]
	}
	if top {
		return injectionCode + chunkCode
	}
	return chunkCode + injectionCode
}

// InjectionCache holds the code compiled for the current facade module so
// outputs of the same entry in other formats reuse it.
type InjectionCache struct {
	mu       sync.Mutex
	identity string
	css      string
	code     string
	ok       bool
}

// Resolve returns the injection code for css under identity, calling
// compile only when nothing usable is cached. A new identity clears the
// cache. Empty css reuses the cached code of the same identity, or yields
// "" when there is none.
func (c *InjectionCache) Resolve(ctx context.Context, identity, css string, compile func(context.Context, string) (string, error)) (code string, hit bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity != identity {
		c.identity, c.css, c.code, c.ok = identity, "", "", false
	}
	if c.ok && (css == "" || css == c.css) {
		return c.code, true, nil
	}
	if css == "" {
		return "", false, nil
	}

	code, err = compile(ctx, css)
	if err != nil {
		return "", false, err
	}
	c.css, c.code, c.ok = css, code, true
	return code, false, nil
}

// Identity returns the facade identity the cache currently holds.
func (c *InjectionCache) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}
