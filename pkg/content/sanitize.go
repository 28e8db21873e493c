package content

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans free text produced by the oracle before it is rendered
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer makes sanitizer allowing a small safe subset of html: p, br, strong, em, ul, li and links
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "ul", "li")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowStandardURLs()
	return &Sanitizer{policy: p}
}

// SanitizeHTML removes everything outside of the allowed html subset
func (s *Sanitizer) SanitizeHTML(text string) string {
	return s.policy.Sanitize(text)
}

// EscapeText escapes html special characters, used for plain text fields
func (s *Sanitizer) EscapeText(text string) string {
	return html.EscapeString(text)
}
