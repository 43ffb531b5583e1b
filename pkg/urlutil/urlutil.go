package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// Canonicalize maps equivalent spellings of a URL onto one form:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments and query parameters are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Canonicalize is pure and idempotent; the input is never mutated.
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}
	canonical.RawPath = ""

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.RawQuery = ""
	canonical.ForceQuery = false

	return canonical
}

// JoinPath appends path segments to base. Segments are trimmed of
// surrounding slashes and whitespace; empty segments are skipped.
func JoinPath(base url.URL, segments ...string) url.URL {
	joined := base
	parts := []string{joined.Path}
	for _, s := range segments {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	joined.Path = path.Join(parts...)
	if !strings.HasPrefix(joined.Path, "/") {
		joined.Path = "/" + joined.Path
	}
	joined.RawPath = ""
	return joined
}

// SameHost reports whether raw points at the host of base (ignoring a
// leading "www."). Relative or unparsable URLs never match.
func SameHost(base url.URL, raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return trimWWW(lowerASCII(u.Hostname())) == trimWWW(lowerASCII(base.Hostname()))
}

func trimWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
