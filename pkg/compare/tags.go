package compare

import (
	"regexp"
	"strings"

	"github.com/coolbeans/billtrace/pkg/match"
)

// markupTag matches the same tags the normalizer strips.
var markupTag = regexp.MustCompile(`<[^>]*>`)

// tagGroup is a run of original tokens that together hold one markup tag,
// such as `<span` and `class="note">board`.
type tagGroup struct {
	first int
	last  int
}

// widenToTags moves span boundaries that fall inside a multi-token tag out
// to the edges of that tag, so a highlight never opens or closes in the
// middle of one. The result may overlap and must be merged.
func widenToTags(spans []match.Span, original []string) []match.Span {
	groups := tagGroups(original)
	if len(groups) == 0 || len(spans) == 0 {
		return spans
	}

	widened := make([]match.Span, len(spans))
	for i, span := range spans {
		for _, group := range groups {
			if span.Start > group.first && span.Start <= group.last {
				span.Start = group.first
			}
			if span.End >= group.first && span.End < group.last {
				span.End = group.last
			}
		}
		widened[i] = span
	}
	return widened
}

// tagGroups finds the tags of the single-space joined tokens that cross a
// token boundary.
func tagGroups(original []string) []tagGroup {
	joined := strings.Join(original, " ")
	if !strings.Contains(joined, "<") {
		return nil
	}

	tokenAt := make([]int, len(joined))
	offset := 0
	for tokenIndex, token := range original {
		end := min(offset+len(token)+1, len(joined))
		for i := offset; i < end; i++ {
			tokenAt[i] = tokenIndex
		}
		offset = end
	}

	var groups []tagGroup
	for _, location := range markupTag.FindAllStringIndex(joined, -1) {
		first, last := tokenAt[location[0]], tokenAt[location[1]-1]
		if first < last {
			groups = append(groups, tagGroup{first: first, last: last})
		}
	}
	return groups
}
