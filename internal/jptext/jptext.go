// Package jptext normalizes Japanese text before keyword matching, so that
// half-width katakana, full-width latin, and case differences in feed text
// never defeat a keyword rule.
package jptext

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Fold returns the canonical matching form: NFKC, narrow width, lower case.
func Fold(s string) string {
	return strings.ToLower(width.Fold.String(norm.NFKC.String(s)))
}

// ContainsAny reports the first keyword found in the already-folded text.
func ContainsAny(foldedText string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(foldedText, Fold(kw)) {
			return kw, true
		}
	}
	return "", false
}
