// Package cookiehdr parses and assembles raw Cookie / Set-Cookie header
// strings. The bridge forwards cookies between the inbound request, the
// session framework and the IdP as opaque header values, so it needs
// string-level handling rather than net/http's per-request cookie jar.
package cookiehdr

import "strings"

// Get returns the value of the named cookie in a raw Cookie header.
// The second return value reports whether the cookie was present.
func Get(header, name string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		if key == name {
			return value, true
		}
	}
	return "", false
}

// isCookieBoundary reports whether the comma at position i in a combined
// Set-Cookie value starts a new cookie. A new cookie begins with
// "name=", so the comma must be followed (after optional spaces) by a
// token containing '=' before the next ';' or ','. This keeps dates
// such as "Expires=Wed, 21 Oct 2026" intact.
func isCookieBoundary(s string, i int) bool {
	rest := s[i+1:]
	rest = strings.TrimLeft(rest, " ")
	for j := 0; j < len(rest); j++ {
		switch rest[j] {
		case '=':
			return j > 0
		case ';', ',', ' ':
			return false
		}
	}
	return false
}

// SplitSetCookie decomposes a combined Set-Cookie header value into the
// leading "name=value" pair of each cookie, dropping attributes such as
// Path or HttpOnly. Some HTTP layers join multiple Set-Cookie headers
// with a comma; the split only happens at comma positions that start a
// new cookie.
func SplitSetCookie(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var cookies []string
	start := 0
	for i := 0; i < len(header); i++ {
		if header[i] == ',' && isCookieBoundary(header, i) {
			cookies = append(cookies, header[start:i])
			start = i + 1
		}
	}
	cookies = append(cookies, header[start:])

	var pairs []string
	for _, c := range cookies {
		first := strings.TrimSpace(strings.Split(c, ";")[0])
		if first == "" || !strings.Contains(first, "=") {
			continue
		}
		pairs = append(pairs, first)
	}
	return pairs
}

// Merge appends "name=value" pairs to a raw Cookie header, skipping
// empty entries. The inbound header comes first so upstream cookies win
// on duplicate names for servers that take the first occurrence.
func Merge(header string, pairs ...string) string {
	parts := make([]string, 0, len(pairs)+1)
	if strings.TrimSpace(header) != "" {
		parts = append(parts, strings.TrimSpace(header))
	}
	for _, p := range pairs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(p))
	}
	return strings.Join(parts, "; ")
}
