// Package sanitize strips markup from user-provided text before storage.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace. Entities are
// decoded so stored notes read as plain text.
func Text(s string) string {
	cleaned := strict.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// TextPtr is Text for optional fields.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

var ugc = bluemonday.UGCPolicy()

// HTML keeps safe formatting markup for message bodies that are rendered as
// HTML (outgoing email), dropping scripts and event handlers.
func HTML(s string) string {
	return ugc.Sanitize(s)
}
