// Package security provides input hardening for user-entered text.
//
// Residents and staff type free text in several places: leave reasons and
// destinations, denial notes, transport purposes, staff notes. None of
// those fields are HTML, so TextSanitizerService strips every tag before
// the value reaches storage. A pasted <script> can never come back to a
// browser intact, and ordinary punctuation passes through unchanged.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService defines the free-text sanitization interface.
// It is applied to every user-entered field before persistence.
type TextSanitizerService interface {
	// Sanitize removes all HTML markup from input and returns the plain
	// text that remains, with surrounding whitespace trimmed.
	// Script and style element bodies are dropped along with their tags.
	// Characters with HTML meaning (&, <, >) survive as literals.
	// Empty input returns an empty string.
	// The same input always yields the same output.
	Sanitize(input string) string
}

// textSanitizer implements TextSanitizerService on top of bluemonday's
// strict policy, which allows no elements and no attributes at all.
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer creates a TextSanitizerService instance.
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize removes all HTML markup and returns trimmed plain text.
func (s *textSanitizer) Sanitize(input string) string {
	// The policy escapes the survivors (& becomes &amp;), which would
	// corrupt stored text like "dinner & a movie". Unescape to recover
	// the literal characters once the markup is gone.
	cleaned := s.policy.Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
