// Package compare runs one candidate text against a reference text:
// normalize both sides, index the reference, find and merge matches, and
// render the candidate with its copied spans highlighted.
package compare

import (
	"fmt"
	"strings"

	"github.com/coolbeans/billtrace/pkg/highlight"
	"github.com/coolbeans/billtrace/pkg/match"
	"github.com/coolbeans/billtrace/pkg/normalize"
)

// Variant selects which token stream is rendered.
type Variant int

const (
	// VariantCleaned renders the normalized candidate tokens.
	VariantCleaned Variant = iota

	// VariantPreserving renders the candidate's original tokens, remapping
	// merged spans through the position map.
	VariantPreserving
)

func (variant Variant) String() string {
	switch variant {
	case VariantCleaned:
		return "cleaned"
	case VariantPreserving:
		return "preserving"
	default:
		return fmt.Sprintf("Variant(%d)", int(variant))
	}
}

// ParseVariant converts a configuration value into a Variant.
func ParseVariant(value string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "cleaned":
		return VariantCleaned, nil
	case "preserving", "position-preserving":
		return VariantPreserving, nil
	default:
		return VariantCleaned, fmt.Errorf("unknown variant %q (want cleaned or preserving)", value)
	}
}

// Options configures a Comparator.
type Options struct {
	K                int
	Policy           match.ScanPolicy
	Alignment        match.Alignment
	Variant          Variant
	RejoinHyphenated bool
	Renderer         highlight.Renderer
}

// DefaultOptions reproduces the published highlighting: k=5, exhaustive
// scan, naive alignment, cleaned output.
func DefaultOptions() Options {
	return Options{
		K:         match.DefaultAnchorLength,
		Policy:    match.ScanExhaustive,
		Alignment: match.AlignNaive,
		Variant:   VariantCleaned,
		Renderer:  highlight.DefaultRenderer(),
	}
}

// Comparator holds validated options. It has no mutable state.
type Comparator struct {
	options Options
	finder  *match.Finder
}

// NewComparator validates options. A zero Renderer is replaced by
// highlight.DefaultRenderer.
func NewComparator(options Options) (*Comparator, error) {
	finder, err := match.NewFinder(options.K, options.Policy, options.Alignment)
	if err != nil {
		return nil, fmt.Errorf("invalid comparator options: %w", err)
	}
	if options.Variant != VariantCleaned && options.Variant != VariantPreserving {
		return nil, fmt.Errorf("invalid comparator options: unknown variant %s", options.Variant)
	}
	if options.Renderer == (highlight.Renderer{}) {
		options.Renderer = highlight.DefaultRenderer()
	}

	return &Comparator{options: options, finder: finder}, nil
}

// Options returns the options in effect.
func (comparator *Comparator) Options() Options {
	return comparator.options
}

// Reference is a normalized and indexed reference document. It is never
// modified after Prepare and may be shared by concurrent Compare calls.
type Reference struct {
	comparator *Comparator
	tokens     []string
	index      *match.AnchorIndex
}

// Prepare normalizes referenceText and builds its anchor index.
func (comparator *Comparator) Prepare(referenceText string) *Reference {
	tokens := normalize.Tokenize(comparator.preprocess(referenceText))
	return &Reference{
		comparator: comparator,
		tokens:     tokens,
		index:      match.BuildIndex(tokens, comparator.options.K),
	}
}

// TokenCount returns the number of normalized reference tokens.
func (reference *Reference) TokenCount() int {
	return len(reference.tokens)
}

// AnchorCount returns the number of distinct anchors in the index.
func (reference *Reference) AnchorCount() int {
	return reference.index.Len()
}

// Compare prepares referenceText and compares candidateText against it.
// Use Prepare once when comparing many candidates to the same reference.
func (comparator *Comparator) Compare(candidateText, referenceText string) (*Result, error) {
	return comparator.Prepare(referenceText).Compare(candidateText)
}

// Compare highlights the parts of candidateText copied from the reference.
// Empty input on either side is not an error; it yields zero spans. An
// error is only returned when span remapping fails, in which case no
// markup is produced for this candidate.
func (reference *Reference) Compare(candidateText string) (*Result, error) {
	comparator := reference.comparator
	text := comparator.preprocess(candidateText)

	switch comparator.options.Variant {
	case VariantPreserving:
		document := normalize.TokenizeWithPositions(text)
		rawMatches := comparator.finder.Find(document.Tokens, reference.tokens, reference.index)

		remapped, err := match.Remap(match.Merge(match.Spans(rawMatches)), document.Positions)
		if err != nil {
			return nil, fmt.Errorf("failed to remap candidate spans: %w", err)
		}
		// Distinct normalized spans can land on the same or neighbouring
		// original tokens, and widening can make spans meet.
		spans := match.Merge(widenToTags(remapped, document.Original))
		return comparator.newResult(document.Original, spans, rawMatches), nil

	default:
		tokens := normalize.Tokenize(text)
		rawMatches := comparator.finder.Find(tokens, reference.tokens, reference.index)
		return comparator.newResult(tokens, match.Merge(match.Spans(rawMatches)), rawMatches), nil
	}
}

func (comparator *Comparator) preprocess(text string) string {
	if comparator.options.RejoinHyphenated {
		return normalize.RejoinHyphenated(text)
	}
	return text
}

func (comparator *Comparator) newResult(tokens []string, spans []match.Span, rawMatches []match.Match) *Result {
	return &Result{
		Markup:        comparator.options.Renderer.Render(tokens, spans),
		Spans:         spans,
		RawMatches:    rawMatches,
		TokenCount:    len(tokens),
		MatchedTokens: match.Covered(spans),
	}
}
