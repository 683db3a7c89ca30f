// Package textnorm provides the text folding shared by every classifier:
// accent stripping, case folding and whitespace collapsing.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks after canonical decomposition,
// so "León" becomes "Leon".
func StripAccents(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CollapseWhitespace trims s and replaces every run of whitespace with a
// single space. Case is preserved.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize folds s for matching: accents stripped, lower-cased and
// whitespace collapsed. Normalize is idempotent.
func Normalize(s string) string {
	return CollapseWhitespace(strings.ToLower(StripAccents(s)))
}

// TopicKey is Normalize with every non-alphanumeric rune replaced by a
// space, used to compare topic phrases against catalog keys.
func TopicKey(s string) string {
	folded := strings.ToLower(StripAccents(s))
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, folded)
	return CollapseWhitespace(mapped)
}
