// Package variant produces numerically shifted restatements of exercises.
//
// Numbers that are structurally significant (exponents, subscripts,
// digits glued to a variable or unit) are left untouched so that the
// shape of the exercise survives the rewrite.
package variant

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/mathibot/internal/textnorm"
)

const (
	// DefaultShiftRatio is the relative shift applied to numbers with
	// magnitude of at least 10.
	DefaultShiftRatio = 0.15

	// DefaultMinShift is the smallest shift applied to numbers with
	// magnitude of at least 10.
	DefaultMinShift = 2.0

	smallIntegerShift = 2
	smallDecimalShift = 1.0
)

var (
	numberRe  = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)
	integerRe = regexp.MustCompile(`-?\d+`)
)

// Pair is one entry of a Mapping.
type Pair struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// Mapping lists original numeric tokens and their replacements in the
// order they first appear.
type Mapping []Pair

// Lookup returns the replacement recorded for original.
func (m Mapping) Lookup(original string) (string, bool) {
	for _, p := range m {
		if p.Original == original {
			return p.Replacement, true
		}
	}
	return "", false
}

// Generator shifts numeric tokens.
type Generator struct {
	ShiftRatio float64
	MinShift   float64
}

// New returns a Generator with the default constants.
func New() *Generator {
	return &Generator{ShiftRatio: DefaultShiftRatio, MinShift: DefaultMinShift}
}

// Generate returns text with every unprotected number shifted away from
// zero, whitespace-collapsed, plus the replacements made. It returns
// ("", nil) when no number could be changed.
func (g *Generator) Generate(text string) (string, Mapping) {
	if text == "" {
		return "", nil
	}

	var mapping Mapping
	out := replaceTokens(numberRe, text, func(tok string, start int) string {
		if IsProtected(text, start) {
			return tok
		}
		if r, ok := mapping.Lookup(tok); ok {
			return r
		}
		shifted := g.shift(tok)
		if shifted == tok {
			return tok
		}
		mapping = append(mapping, Pair{Original: tok, Replacement: shifted})
		return shifted
	})

	variant := textnorm.CollapseWhitespace(out)
	if len(mapping) == 0 || variant == textnorm.CollapseWhitespace(text) {
		return "", nil
	}
	return variant, mapping
}

// Fallback applies a flat ±2 shift to every unprotected integer token of
// the whitespace-collapsed text. It is used when Generate finds nothing.
func Fallback(text string) (string, Mapping) {
	cleaned := textnorm.CollapseWhitespace(text)
	if cleaned == "" {
		return "", nil
	}

	var mapping Mapping
	out := replaceTokens(integerRe, cleaned, func(tok string, start int) string {
		if IsProtected(cleaned, start) {
			return tok
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return tok
		}
		if r, ok := mapping.Lookup(tok); ok {
			return r
		}
		delta := smallIntegerShift
		if n < 0 {
			delta = -delta
		}
		repl := strconv.Itoa(n + delta)
		mapping = append(mapping, Pair{Original: tok, Replacement: repl})
		return repl
	})

	variant := textnorm.CollapseWhitespace(out)
	if variant == "" || variant == cleaned {
		return "", nil
	}
	return variant, mapping
}

// IsProtected reports whether the numeric token starting at byte offset
// start must be preserved: it follows a letter, an exponent or subscript
// marker, or sits inside a ^{...} / _{...} group.
func IsProtected(text string, start int) bool {
	if start <= 0 || start > len(text) {
		return false
	}
	prefix := text[:start]

	prev, _ := utf8.DecodeLastRuneInString(prefix)
	if unicode.IsLetter(prev) || isMarker(prev) {
		return true
	}

	r, rest := lastNonSpace(prefix)
	if isMarker(r) {
		return true
	}
	if r == '{' {
		before, _ := lastNonSpace(rest)
		return isMarker(before)
	}
	return false
}

func isMarker(r rune) bool {
	return r == '^' || r == '_'
}

// lastNonSpace returns the last non-space rune of s and the text before it.
func lastNonSpace(s string) (rune, string) {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if trimmed == "" {
		return utf8.RuneError, ""
	}
	r, size := utf8.DecodeLastRuneInString(trimmed)
	return r, trimmed[:len(trimmed)-size]
}

func (g *Generator) shift(raw string) string {
	hasComma := strings.Contains(raw, ",")
	hasDot := strings.Contains(raw, ".")

	n, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return raw
	}

	abs := math.Abs(n)
	var delta float64
	switch {
	case abs >= 10:
		delta = math.Max(g.MinShift, abs*g.ShiftRatio)
	case !hasComma && !hasDot:
		delta = smallIntegerShift
	default:
		delta = smallDecimalShift
	}

	updated := n + delta
	if n < 0 {
		updated = n - delta
	}

	if !hasComma && !hasDot {
		return strconv.FormatInt(int64(math.Round(updated)), 10)
	}

	s := strconv.FormatFloat(updated, 'f', 2, 64)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	if hasComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// replaceTokens is regexp.ReplaceAllStringFunc with the match offset.
func replaceTokens(re *regexp.Regexp, text string, fn func(tok string, start int) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		b.WriteString(text[last:loc[0]])
		b.WriteString(fn(text[loc[0]:loc[1]], loc[0]))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
