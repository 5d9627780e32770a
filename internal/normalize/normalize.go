// Package normalize derives the canonical cache key for a user query. The
// key is the single source of truth for deduplication: two inputs a human
// would consider the same resource must produce the same key.
package normalize

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Key canonicalizes a raw query into a cache key. It is a pure, total
// function: any input, including garbage, yields a usable key.
//
// Inputs with no "." or with interior whitespace are treated as free text
// and reduced to a trimmed, lowercased, NFC-normalized copy. Anything else
// is treated as URL-like: a default scheme is added when missing, the
// leading "www." and a single trailing "/" are stripped, and the query
// string and fragment are discarded so tracking parameters never split the
// cache. Parse failures fall back to the free-text form.
func Key(raw string) string {
	s := strings.TrimSpace(norm.NFC.String(raw))

	if !strings.Contains(s, ".") || containsSpace(s) {
		return lower(s)
	}

	candidate := s
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return lower(s)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	path := strings.TrimSuffix(u.EscapedPath(), "/")

	return lower(host + path)
}

func containsSpace(s string) bool {
	return strings.ContainsFunc(s, unicode.IsSpace)
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
