package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from user supplied text and trims it. The
// result is plain text, so entities produced by the policy are decoded again.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
