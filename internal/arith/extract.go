package arith

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var segmentRe = regexp.MustCompile(`[0-9.\s+\-*/×÷:()^]+`)

// ExtractExpression finds the longest run of digits, operators and
// parentheses in text that contains at least one operator. It returns the
// run as the student wrote it (with comma decimals turned into points) and
// its normalized form for Evaluate.
func ExtractExpression(text string) (display, normalized string, ok bool) {
	if text == "" {
		return "", "", false
	}
	candidate := strings.ReplaceAll(text, ",", ".")

	best := ""
	for _, seg := range segmentRe.FindAllString(candidate, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" || !strings.ContainsAny(seg, "+-*/×÷:^") {
			continue
		}
		if utf8.RuneCountInString(seg) > utf8.RuneCountInString(best) {
			best = seg
		}
	}
	if best == "" {
		return "", "", false
	}

	prepared := strings.NewReplacer("×", "*", "÷", "/", ":", "/", "^", "**").Replace(best)
	prepared = strings.Join(strings.Fields(prepared), "")
	if prepared == "" {
		return "", "", false
	}
	return best, prepared, true
}

// IsLiteralExpression reports whether text is nothing but an arithmetic
// expression, optionally wrapped in question marks or ending in "=".
func IsLiteralExpression(text string) bool {
	display, _, ok := ExtractExpression(text)
	if !ok {
		return false
	}
	rest := strings.Replace(strings.ReplaceAll(text, ",", "."), display, "", 1)
	rest = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune("¿?=", r) {
			return -1
		}
		return r
	}, rest)
	return rest == ""
}

// FormatNumber renders v without a decimal point when it is integral and
// with at most six fractional digits otherwise.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
