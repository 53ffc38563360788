package normalize

import (
	"strings"
	"unicode/utf8"
)

// PositionMap maps a normalized token index to the index of the original
// whitespace-delimited token it was derived from. It is non-decreasing; a
// single original token that cleans into several words (for example
// "fox,runs") maps each of those words to the same original index.
type PositionMap []int

// Lookup returns the original token index for a normalized token index.
func (positionMap PositionMap) Lookup(normalizedIndex int) (int, bool) {
	if normalizedIndex < 0 || normalizedIndex >= len(positionMap) {
		return 0, false
	}
	return positionMap[normalizedIndex], true
}

// Document is one side of a comparison in the position-preserving variant.
type Document struct {
	// Original is the raw text split on whitespace, untouched.
	Original []string
	// Tokens is the normalized token sequence, identical to Tokenize(raw).
	Tokens []string
	// Positions has one entry per token in Tokens.
	Positions PositionMap
}

// TokenizeWithPositions runs the cleaning chain while remembering which
// original token every surviving byte belongs to. Because the same rules run
// in the same order, Tokens always equals Tokenize(raw).
//
// Where a rule glues two original tokens together ("desig6 nated" becomes
// "designated"), the resulting token maps to the first of them.
func TokenizeWithPositions(raw string) Document {
	text := newTrackedText(raw)
	for _, cleaningRule := range cleaningRules {
		text = text.replaceAll(cleaningRule)
	}
	tokens, positions := text.fields()
	return Document{
		Original:  Fields(raw),
		Tokens:    tokens,
		Positions: positions,
	}
}

// trackedText is a string plus, for every byte, the index of the original
// token it came from. Whitespace and replacement literals carry -1.
type trackedText struct {
	text   string
	origin []int
}

func newTrackedText(raw string) trackedText {
	origin := make([]int, len(raw))
	tokenIndex := -1
	inToken := false
	for byteOffset := 0; byteOffset < len(raw); {
		character, width := utf8.DecodeRuneInString(raw[byteOffset:])
		owner := -1
		if isSpace(character) {
			inToken = false
		} else {
			if !inToken {
				tokenIndex++
				inToken = true
			}
			owner = tokenIndex
		}
		for i := byteOffset; i < byteOffset+width; i++ {
			origin[i] = owner
		}
		byteOffset += width
	}
	return trackedText{text: raw, origin: origin}
}

// replaceAll is regexp.ReplaceAllString for one cleaning rule, carrying the
// origin of every byte that survives into the output.
func (tracked trackedText) replaceAll(cleaningRule rule) trackedText {
	matches := cleaningRule.pattern.FindAllStringSubmatchIndex(tracked.text, -1)
	if len(matches) == 0 {
		return tracked
	}

	var builder strings.Builder
	builder.Grow(len(tracked.text))
	origin := make([]int, 0, len(tracked.origin))

	keep := func(start, end int) {
		builder.WriteString(tracked.text[start:end])
		origin = append(origin, tracked.origin[start:end]...)
	}

	lastEnd := 0
	for _, match := range matches {
		keep(lastEnd, match[0])
		if cleaningRule.groups == nil {
			builder.WriteString(cleaningRule.literal)
			for range len(cleaningRule.literal) {
				origin = append(origin, -1)
			}
		} else {
			for _, group := range cleaningRule.groups {
				groupStart, groupEnd := match[2*group], match[2*group+1]
				if groupStart < 0 {
					continue
				}
				keep(groupStart, groupEnd)
			}
		}
		lastEnd = match[1]
	}
	keep(lastEnd, len(tracked.text))

	return trackedText{text: builder.String(), origin: origin}
}

// fields splits the tracked text into tokens and reports each token's
// original index.
func (tracked trackedText) fields() ([]string, PositionMap) {
	var tokens []string
	var positions PositionMap

	tokenStart := -1
	flush := func(end int) {
		if tokenStart < 0 {
			return
		}
		owner := -1
		for i := tokenStart; i < end; i++ {
			if tracked.origin[i] >= 0 {
				owner = tracked.origin[i]
				break
			}
		}
		tokens = append(tokens, tracked.text[tokenStart:end])
		positions = append(positions, owner)
		tokenStart = -1
	}

	for byteOffset, character := range tracked.text {
		if isSpace(character) {
			flush(byteOffset)
			continue
		}
		if tokenStart < 0 {
			tokenStart = byteOffset
		}
	}
	flush(len(tracked.text))

	return tokens, positions
}
