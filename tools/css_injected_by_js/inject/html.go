package inject

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// RemoveLinkStylesheets drops <link rel="stylesheet"> tags whose href points
// at one of names. The href may carry a path prefix, a query string or a
// fragment. Everything else is copied through byte for byte.
func RemoveLinkStylesheets(doc string, names []string) string {
	if len(names) == 0 || !strings.Contains(strings.ToLower(doc), "<link") {
		return doc
	}

	var out bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				break
			}
			// Malformed input: keep the document as it was.
			return doc
		}
		// TagName and TagAttr lower-case the token buffer in place.
		raw := append([]byte(nil), z.Raw()...)
		if (tt == html.StartTagToken || tt == html.SelfClosingTagToken) && isInternalizedLink(z, names) {
			continue
		}
		out.Write(raw)
	}
	return out.String()
}

// isInternalizedLink consumes the attributes of the current tag.
func isInternalizedLink(z *html.Tokenizer, names []string) bool {
	tag, hasAttr := z.TagName()
	if string(tag) != "link" || !hasAttr {
		return false
	}
	var rel, href string
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "rel":
			rel = string(val)
		case "href":
			href = string(val)
		}
		if !more {
			break
		}
	}
	if href == "" || !hasToken(rel, "stylesheet") {
		return false
	}
	return matchesStylesheet(href, names)
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

// matchesStylesheet reports whether href refers to one of names.
func matchesStylesheet(href string, names []string) bool {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if href == name || strings.HasSuffix(href, "/"+name) {
			return true
		}
	}
	return false
}
