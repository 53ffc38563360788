package match

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAnchorLength is returned for an anchor length below one.
var ErrInvalidAnchorLength = errors.New("anchor length must be at least 1")

// ScanPolicy decides where scanning resumes after a hit.
type ScanPolicy int

const (
	// ScanExhaustive tries every candidate offset, so hits may overlap and
	// Merge reconciles them.
	ScanExhaustive ScanPolicy = iota

	// ScanSkipAhead resumes right after the end of each hit. It never
	// reports overlapping hits, and may miss a better-placed overlapping
	// anchor.
	ScanSkipAhead
)

func (policy ScanPolicy) String() string {
	switch policy {
	case ScanExhaustive:
		return "exhaustive"
	case ScanSkipAhead:
		return "skip-ahead"
	default:
		return fmt.Sprintf("ScanPolicy(%d)", int(policy))
	}
}

// ParseScanPolicy converts a configuration value into a ScanPolicy.
func ParseScanPolicy(value string) (ScanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "exhaustive":
		return ScanExhaustive, nil
	case "skip-ahead", "skipahead", "skip":
		return ScanSkipAhead, nil
	default:
		return ScanExhaustive, fmt.Errorf("unknown scan policy %q (want exhaustive or skip-ahead)", value)
	}
}

// Alignment decides which reference tokens a hit is extended against.
type Alignment int

const (
	// AlignNaive compares candidate[i+j] with reference[i+j], the same
	// absolute offset on both sides. It is only right when the candidate
	// quotes the reference from the same offset, but it reproduces the
	// highlighting published so far bit for bit.
	AlignNaive Alignment = iota

	// AlignAnchorRelative compares candidate[i+j] with reference[r+j] for
	// each reference offset r where the anchor occurs, keeping the longest
	// extension (earliest r on ties).
	AlignAnchorRelative
)

func (alignment Alignment) String() string {
	switch alignment {
	case AlignNaive:
		return "alignment-naive"
	case AlignAnchorRelative:
		return "anchor-relative"
	default:
		return fmt.Sprintf("Alignment(%d)", int(alignment))
	}
}

// ParseAlignment converts a configuration value into an Alignment.
func ParseAlignment(value string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "alignment-naive", "naive":
		return AlignNaive, nil
	case "anchor-relative", "relative":
		return AlignAnchorRelative, nil
	default:
		return AlignNaive, fmt.Errorf("unknown alignment %q (want alignment-naive or anchor-relative)", value)
	}
}

// Match is one raw hit: a candidate span plus the reference offset of the
// anchor that produced it.
type Match struct {
	Span
	ReferenceStart int `json:"reference_start"`
}

// Spans drops the reference side of each match.
func Spans(matches []Match) []Span {
	if len(matches) == 0 {
		return nil
	}
	spans := make([]Span, len(matches))
	for i, hit := range matches {
		spans[i] = hit.Span
	}
	return spans
}

// Finder scans candidate token sequences for anchors of a reference.
// A Finder holds no per-run state and may be used concurrently.
type Finder struct {
	anchorLength int
	policy       ScanPolicy
	alignment    Alignment
}

// NewFinder creates a Finder for anchors of anchorLength tokens.
func NewFinder(anchorLength int, policy ScanPolicy, alignment Alignment) (*Finder, error) {
	if anchorLength < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAnchorLength, anchorLength)
	}
	return &Finder{
		anchorLength: anchorLength,
		policy:       policy,
		alignment:    alignment,
	}, nil
}

// K returns the anchor length.
func (finder *Finder) K() int {
	return finder.anchorLength
}

// Policy returns the scan policy.
func (finder *Finder) Policy() ScanPolicy {
	return finder.policy
}

// Alignment returns the extension strategy.
func (finder *Finder) Alignment() Alignment {
	return finder.alignment
}

// Find returns the raw hits of candidate against reference in discovery
// order. index must have been built from reference with the same anchor
// length; an index of another length never matches. Every returned span is
// at least K tokens long.
func (finder *Finder) Find(candidate, reference []string, index *AnchorIndex) []Match {
	anchorLength := finder.anchorLength
	if index == nil || index.Len() == 0 || len(candidate) < anchorLength {
		return nil
	}

	lowerCandidate := lowerAll(candidate)
	lowerReference := lowerAll(reference)

	var matches []Match
	for start := 0; start <= len(lowerCandidate)-anchorLength; {
		key := strings.Join(lowerCandidate[start:start+anchorLength], " ")
		referenceStarts := index.Positions(key)
		if len(referenceStarts) == 0 {
			start++
			continue
		}

		length, referenceStart := finder.extend(lowerCandidate, lowerReference, start, referenceStarts)
		matches = append(matches, Match{
			Span:           Span{Start: start, End: start + length - 1},
			ReferenceStart: referenceStart,
		})

		if finder.policy == ScanSkipAhead {
			start += length
		} else {
			start++
		}
	}

	return matches
}

// extend grows a verified anchor at candidate offset start and returns the
// hit length and the reference offset it is attributed to.
func (finder *Finder) extend(candidate, reference []string, start int, referenceStarts []int) (int, int) {
	if finder.alignment == AlignAnchorRelative {
		bestLength, bestStart := 0, referenceStarts[0]
		for _, referenceStart := range referenceStarts {
			length := extendFrom(candidate, reference, start, referenceStart, finder.anchorLength)
			if length > bestLength {
				bestLength, bestStart = length, referenceStart
			}
		}
		return bestLength, bestStart
	}

	return extendFrom(candidate, reference, start, start, finder.anchorLength), referenceStarts[0]
}

// extendFrom counts how far candidate[candidateStart:] and
// reference[referenceStart:] keep agreeing past the first anchorLength
// tokens, which the caller has already verified through the index.
func extendFrom(candidate, reference []string, candidateStart, referenceStart, anchorLength int) int {
	length := anchorLength
	for candidateStart+length < len(candidate) &&
		referenceStart+length < len(reference) &&
		candidate[candidateStart+length] == reference[referenceStart+length] {
		length++
	}
	return length
}

func lowerAll(tokens []string) []string {
	lowered := make([]string, len(tokens))
	for i, token := range tokens {
		lowered[i] = strings.ToLower(token)
	}
	return lowered
}
