// Package slug derives URL-safe tenant identifiers.
package slug

import (
	"strings"
)

// Make lowercases the seed and collapses anything that is not a letter or
// digit into single hyphens. The result is stable for a given input; slug
// uniqueness is enforced by the store.
func Make(seed string) string {
	base := strings.ToLower(strings.TrimSpace(seed))

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "org"
	}
	return out
}

// Valid reports whether a caller-supplied slug is already in canonical form.
func Valid(s string) bool {
	return s != "" && s == Make(s)
}
