// Package intent holds the message classifiers used to route a chat turn.
//
// Each classifier is an ordered list of named rules evaluated against the
// normalized message; the first rule that matches decides. Rules are pure
// and independently testable.
package intent

import (
	"regexp"
	"strings"

	"github.com/abhisek/mathibot/internal/textnorm"
)

// Rule is a single named predicate over normalized text.
type Rule struct {
	Name  string
	Match func(text string) bool
}

// RuleSet is evaluated in order; the first match wins.
type RuleSet []Rule

// Evaluate normalizes text and returns the name of the first matching
// rule, or ("", false) if none applies.
func (rs RuleSet) Evaluate(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	norm := textnorm.Normalize(text)
	for _, r := range rs {
		if r.Match(norm) {
			return r.Name, true
		}
	}
	return "", false
}

func containsAny(markers ...string) func(string) bool {
	return func(text string) bool {
		for _, m := range markers {
			if strings.Contains(text, m) {
				return true
			}
		}
		return false
	}
}

func matches(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

var digitRe = regexp.MustCompile(`\d`)

func hasDigits(text string) bool {
	return digitRe.MatchString(text)
}
