package utils

import "strings"

// NormalizeURL canonicalizes a page URL for storage: trims whitespace and
// strips a single trailing slash so "/pricing" and "/pricing/" identify the
// same page
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return u
	}
	if u != "/" && strings.HasSuffix(u, "/") {
		u = strings.TrimSuffix(u, "/")
	}
	return u
}
