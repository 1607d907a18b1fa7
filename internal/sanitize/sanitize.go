// Package sanitize normalizes user-supplied free text before it is
// persisted: script tags are stripped, the rest is HTML-escaped, and the
// result is capped in length.
package sanitize

import (
	"html"
	"regexp"
)

// MaxFieldLen caps every free-text field stored by the service.
const MaxFieldLen = 10000

// Matches whole <script>...</script> blocks and dangling open tags.
var scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<script[^>]*/?>`)

// Text sanitizes s with the default length cap.
func Text(s string) string {
	return TextN(s, MaxFieldLen)
}

// TextN sanitizes s and caps it at n runes. Stripping happens before
// escaping, otherwise the escaped tags would survive.
func TextN(s string, n int) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = html.EscapeString(s)

	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
