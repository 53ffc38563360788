package match

import "strings"

// DefaultAnchorLength is the number of tokens in an anchor window.
const DefaultAnchorLength = 5

// AnchorKey joins tokens into the case-insensitive lookup key of a window.
func AnchorKey(tokens []string) string {
	return strings.ToLower(strings.Join(tokens, " "))
}

// AnchorIndex holds every k-token window of a reference sequence. Besides
// answering presence queries it remembers where each window starts in the
// reference, which anchor-relative extension needs. An AnchorIndex is never
// modified after BuildIndex returns and may be shared between goroutines.
type AnchorIndex struct {
	anchorLength int
	starts       map[string][]int
}

// BuildIndex indexes every window [i, i+k) of reference. A reference shorter
// than k, or a non-positive k, yields an empty index.
func BuildIndex(reference []string, anchorLength int) *AnchorIndex {
	index := &AnchorIndex{
		anchorLength: anchorLength,
		starts:       make(map[string][]int),
	}
	if anchorLength < 1 {
		return index
	}

	for start := 0; start <= len(reference)-anchorLength; start++ {
		key := AnchorKey(reference[start : start+anchorLength])
		index.starts[key] = append(index.starts[key], start)
	}

	return index
}

// K returns the window length the index was built with.
func (index *AnchorIndex) K() int {
	return index.anchorLength
}

// Len returns the number of distinct anchors.
func (index *AnchorIndex) Len() int {
	return len(index.starts)
}

// Contains reports whether the anchor key occurs in the reference.
func (index *AnchorIndex) Contains(key string) bool {
	_, found := index.starts[key]
	return found
}

// Positions returns the ascending reference offsets at which key starts.
// The returned slice must not be modified.
func (index *AnchorIndex) Positions(key string) []int {
	return index.starts[key]
}
