package compare

import "github.com/coolbeans/billtrace/pkg/match"

// Result is the outcome of one comparison.
type Result struct {
	// Markup is the rendered candidate.
	Markup string `json:"markup"`

	// Spans are the merged spans over the rendered tokens: normalized
	// tokens for VariantCleaned, original tokens for VariantPreserving.
	Spans []match.Span `json:"spans"`

	// RawMatches are the unmerged hits over normalized candidate tokens in
	// discovery order.
	RawMatches []match.Match `json:"raw_matches"`

	TokenCount    int `json:"token_count"`
	MatchedTokens int `json:"matched_tokens"`
}

// Coverage is the fraction of rendered tokens inside a span.
func (result *Result) Coverage() float64 {
	if result == nil || result.TokenCount == 0 {
		return 0
	}
	return float64(result.MatchedTokens) / float64(result.TokenCount)
}

// Highlighted reports whether any span was found.
func (result *Result) Highlighted() bool {
	return result != nil && len(result.Spans) > 0
}
