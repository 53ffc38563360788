// Package match finds the spans of a candidate token sequence that were
// copied from a reference token sequence.
//
// Detection works in three steps: every fixed-length window ("anchor") of the
// reference goes into an AnchorIndex; a Finder looks up each candidate window
// against the index and extends hits token by token; Merge folds the raw,
// possibly overlapping hits into maximal spans.
package match

import (
	"fmt"
	"slices"
)

// Span is a closed range [Start, End] of token indices.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of tokens covered by the span.
func (span Span) Len() int {
	return span.End - span.Start + 1
}

// Contains reports whether tokenIndex lies inside the span.
func (span Span) Contains(tokenIndex int) bool {
	return tokenIndex >= span.Start && tokenIndex <= span.End
}

func (span Span) String() string {
	return fmt.Sprintf("[%d,%d]", span.Start, span.End)
}

// Merge sorts spans by start and folds overlapping or adjacent spans into
// maximal ones. The result is ascending, pairwise non-overlapping and
// non-adjacent, and covers exactly the indices the input covers. The input
// slice is not modified. Merging a merged list returns an equal list.
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, func(a, b Span) int {
		return a.Start - b.Start
	})

	return foldSpans(sorted[1:], []Span{sorted[0]})
}

// foldSpans extends the last merged span with each next span it overlaps or
// touches, and starts a new merged span otherwise.
func foldSpans(remaining []Span, merged []Span) []Span {
	for _, next := range remaining {
		current := merged[len(merged)-1]
		if next.Start <= current.End+1 {
			merged[len(merged)-1] = Span{Start: current.Start, End: max(current.End, next.End)}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// Covered returns the total number of tokens inside the given merged spans.
func Covered(spans []Span) int {
	total := 0
	for _, span := range spans {
		total += span.Len()
	}
	return total
}
