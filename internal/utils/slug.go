package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks strips combining marks, so "é" becomes "e". Transformers carry
// state, so each call gets its own chain.
func foldMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slugify folds accents, lowercases s and collapses every run of characters
// outside [a-z0-9] into a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(foldMarks(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}
