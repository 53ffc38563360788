// Package normalize strips markup and legal-document noise (embedded line
// numbers, footnote digits, parenthetical citations, punctuation) from bill
// and model-act text and splits the result into comparison tokens.
//
// Two entry points share one rule table: Clean/Tokenize produce the cleaned
// token stream, and TokenizeWithPositions additionally records, for every
// cleaned token, which whitespace-delimited token of the original text it came
// from.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// spaceClass matches the same code points as a JavaScript \s, which is what
// the bills corpus was originally cleaned with. RE2's \s is ASCII-only, and
// Google Docs exports are full of U+00A0.
const spaceClass = `[\s\v\p{Z}\x{FEFF}]`

// rule is one regex rewrite in the cleaning chain. The replacement is either
// the concatenation of the listed capture groups (in order) or a literal.
type rule struct {
	name    string
	pattern *regexp.Regexp
	groups  []int
	literal string
}

// expand returns the rule's replacement in regexp.Expand syntax.
func (r rule) expand() string {
	if r.groups == nil {
		return r.literal
	}
	var sb strings.Builder
	for _, group := range r.groups {
		sb.WriteString("${" + strconv.Itoa(group) + "}")
	}
	return sb.String()
}

// cleaningRules is the ordered transformation chain. Order matters: line
// numbers must go before the generic number rule, and digits fused to words
// must be unglued before standalone numbers are removed.
var cleaningRules = []rule{
	// Embedded style blocks, then any remaining markup tag.
	{name: "style-block", pattern: regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)},
	{name: "markup-tag", pattern: regexp.MustCompile(`<[^>]*>`)},

	// Line numbers at the start of a line ("1.1 ") and in the middle of a
	// line (" 1.11 ").
	{name: "leading-line-number", pattern: regexp.MustCompile(`(?m)^` + spaceClass + `*\d+\.\d+` + spaceClass + `+`)},
	{name: "inline-line-number", pattern: regexp.MustCompile(spaceClass + `+\d+\.\d+` + spaceClass + `+`), literal: " "},

	// Digits fused into words: "desig6 nated", "1initiated", "desig6nated",
	// "ust be 1initiated".
	{name: "split-word-digit", pattern: regexp.MustCompile(`(\w+)(\d+)(` + spaceClass + `+)(\w+)`), groups: []int{1, 4}},
	{name: "leading-digit", pattern: regexp.MustCompile(`(\d+)(\w+)`), groups: []int{2}},
	{name: "embedded-digit", pattern: regexp.MustCompile(`(\w+)(\d+)(\w+)`), groups: []int{1, 3}},
	{name: "spaced-embedded-digit", pattern: regexp.MustCompile(`(\w*` + spaceClass + `+\w*)(\d+)(\w+)`), groups: []int{1, 3}},

	// Whatever numbers remain, decimal or integral.
	{name: "number", pattern: regexp.MustCompile(`\b\d+\.\d+\b|\b\d+\b`)},

	// Parenthetical content, single pass, no nesting.
	{name: "parenthetical", pattern: regexp.MustCompile(`\([^)]*\)`)},

	{name: "punctuation", pattern: regexp.MustCompile(`[.,;:!?()"']`), literal: " "},
}

var whitespacePattern = regexp.MustCompile(spaceClass + `+`)

// isSpace reports whether r belongs to spaceClass.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Z)
}

// Clean applies the full cleaning chain to raw text and returns a single
// string whose words are separated by exactly one space.
func Clean(raw string) string {
	cleaned := raw
	for _, cleaningRule := range cleaningRules {
		cleaned = cleaningRule.pattern.ReplaceAllString(cleaned, cleaningRule.expand())
	}
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimFunc(cleaned, isSpace)
}

// Tokenize cleans raw text and splits it into tokens. Tokens keep their
// original case; comparisons lower-case them.
func Tokenize(raw string) []string {
	return Fields(Clean(raw))
}

// Fields splits text on the same whitespace the cleaning rules recognise.
func Fields(text string) []string {
	return strings.FieldsFunc(text, isSpace)
}
