// Package sanitize strips markup from free-text fields before they are stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer removes every HTML tag and trims surrounding whitespace.
// It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New returns a Sanitizer backed by bluemonday's strict policy.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 8

// Text returns raw with tags removed and whitespace trimmed. Entities are
// decoded so "&" stays "&", and decoding repeats until the result is stable
// so encoded markup like "&lt;b&gt;" is stripped as well.
func (s *Sanitizer) Text(raw string) string {
	out := strings.TrimSpace(raw)
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still unwrapping after maxPasses: keep the escaped form, it is inert.
	return strings.TrimSpace(s.policy.Sanitize(out))
}
