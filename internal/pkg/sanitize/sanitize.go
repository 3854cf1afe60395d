// Package sanitize strips markup from user-entered free text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off
const maxPasses = 4

// Text removes every HTML element from s and trims surrounding whitespace.
// Entities are decoded so plain text round-trips, and the result is
// sanitized again until decoding no longer produces new markup.
func Text(s string) string {
	if s == "" {
		return ""
	}

	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	return strings.TrimSpace(strict.Sanitize(s))
}
