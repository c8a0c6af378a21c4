package symbols

import (
	"net/url"
	"strings"
)

// DefaultSymbol is shown on the detail page when the path carries no symbol.
const DefaultSymbol = "AAPL"

// Canonical trims and upper-cases a symbol that is already decoded, such as
// a ServeMux path value, a query parameter or a catalog entry.
func Canonical(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Normalize URL-decodes a raw, still escaped path segment once and then
// canonicalizes it. Undecodable input is used as-is.
func Normalize(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return Canonical(decoded)
}

// Resolve normalizes a raw segment and falls back to DefaultSymbol when
// nothing is left.
func Resolve(raw string) (symbol string, usingFallback bool) {
	return orDefault(Normalize(raw))
}

// ResolveDecoded is Resolve for a value the router has already unescaped.
func ResolveDecoded(s string) (symbol string, usingFallback bool) {
	return orDefault(Canonical(s))
}

func orDefault(s string) (string, bool) {
	if s != "" {
		return s, false
	}
	return DefaultSymbol, true
}

// ParseList splits a decoded comma separated list, canonicalizing each entry
// and dropping blanks and duplicates while keeping first-seen order.
func ParseList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		s := Canonical(part)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
