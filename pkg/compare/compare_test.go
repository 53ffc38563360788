package compare

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/coolbeans/billtrace/pkg/highlight"
	"github.com/coolbeans/billtrace/pkg/match"
)

func newTestComparator(t *testing.T, options Options) *Comparator {
	t.Helper()
	comparator, err := NewComparator(options)
	if err != nil {
		t.Fatalf("NewComparator failed: %v", err)
	}
	return comparator
}

func TestCompare_ConcreteExample(t *testing.T) {
	comparator := newTestComparator(t, DefaultOptions())

	result, err := comparator.Compare("a the quick brown fox jumps dog", "the quick brown fox jumps over")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	expectedMarkup := `<p>a <span class="copied-language">the quick brown fox jumps</span> dog</p>`
	if result.Markup != expectedMarkup {
		t.Errorf("Markup = %s, want %s", result.Markup, expectedMarkup)
	}
	if !reflect.DeepEqual(result.Spans, []match.Span{{Start: 1, End: 5}}) {
		t.Errorf("Spans = %v, want [[1,5]]", result.Spans)
	}
	if result.TokenCount != 7 || result.MatchedTokens != 5 {
		t.Errorf("TokenCount/MatchedTokens = %d/%d, want 7/5", result.TokenCount, result.MatchedTokens)
	}
	if !result.Highlighted() {
		t.Error("expected Highlighted() to be true")
	}
}

func TestCompare_SelfMatch(t *testing.T) {
	text := "The commissioner shall adopt rules to implement this section."
	comparator := newTestComparator(t, DefaultOptions())

	result, err := comparator.Compare(text, text)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !reflect.DeepEqual(result.Spans, []match.Span{{Start: 0, End: 8}}) {
		t.Errorf("Spans = %v, want [[0,8]]", result.Spans)
	}
	if result.Coverage() != 1 {
		t.Errorf("Coverage = %v, want 1", result.Coverage())
	}
}

func TestCompare_NoMatches(t *testing.T) {
	testCases := []struct {
		name           string
		candidate      string
		reference      string
		expectedMarkup string
	}{
		{
			name:           "reference shorter than k",
			candidate:      "the board shall act now",
			reference:      "the board shall act",
			expectedMarkup: `<p>the board shall act now</p>`,
		},
		{
			name:           "empty reference",
			candidate:      "the board shall act now",
			reference:      "",
			expectedMarkup: `<p>the board shall act now</p>`,
		},
		{
			name:           "empty candidate",
			candidate:      "",
			reference:      "the board shall act now",
			expectedMarkup: `<p></p>`,
		},
		{
			name:           "reference is only noise",
			candidate:      "the board shall act now",
			reference:      "1.1 2.2 (repealed) 3",
			expectedMarkup: `<p>the board shall act now</p>`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			for _, variant := range []Variant{VariantCleaned, VariantPreserving} {
				options := DefaultOptions()
				options.Variant = variant
				comparator := newTestComparator(t, options)

				result, err := comparator.Compare(testCase.candidate, testCase.reference)
				if err != nil {
					t.Fatalf("%s: Compare failed: %v", variant, err)
				}
				if result.Markup != testCase.expectedMarkup {
					t.Errorf("%s: Markup = %s, want %s", variant, result.Markup, testCase.expectedMarkup)
				}
				if result.Highlighted() || result.MatchedTokens != 0 {
					t.Errorf("%s: expected no highlighting, got %v", variant, result.Spans)
				}
			}
		})
	}
}

const (
	noisyCandidate = "1.1 The quick (see note) brown fox, jumps over."
	plainReference = "the quick brown fox jumps over the lazy dog"
)

func TestCompare_CleanedVariant(t *testing.T) {
	comparator := newTestComparator(t, DefaultOptions())

	result, err := comparator.Compare(noisyCandidate, plainReference)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	expectedMarkup := `<p><span class="copied-language">The quick brown fox jumps over</span></p>`
	if result.Markup != expectedMarkup {
		t.Errorf("Markup = %s, want %s", result.Markup, expectedMarkup)
	}
	expectedRaw := []match.Match{
		{Span: match.Span{Start: 0, End: 5}, ReferenceStart: 0},
		{Span: match.Span{Start: 1, End: 5}, ReferenceStart: 1},
	}
	if !reflect.DeepEqual(result.RawMatches, expectedRaw) {
		t.Errorf("RawMatches = %+v, want %+v", result.RawMatches, expectedRaw)
	}
}

func TestCompare_PreservingVariant(t *testing.T) {
	options := DefaultOptions()
	options.Variant = VariantPreserving
	comparator := newTestComparator(t, options)

	result, err := comparator.Compare(noisyCandidate, plainReference)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	expectedMarkup := `<p>1.1 <span class="copied-language">The quick (see note) brown fox, jumps over.</span></p>`
	if result.Markup != expectedMarkup {
		t.Errorf("Markup = %s, want %s", result.Markup, expectedMarkup)
	}
	if !reflect.DeepEqual(result.Spans, []match.Span{{Start: 1, End: 8}}) {
		t.Errorf("Spans = %v, want [[1,8]]", result.Spans)
	}
	if result.TokenCount != 9 || result.MatchedTokens != 8 {
		t.Errorf("TokenCount/MatchedTokens = %d/%d, want 9/8", result.TokenCount, result.MatchedTokens)
	}
}

func TestCompare_PreservingVariantKeepsTagsWhole(t *testing.T) {
	options := DefaultOptions()
	options.Variant = VariantPreserving
	comparator := newTestComparator(t, options)

	testCases := []struct {
		name           string
		candidate      string
		expectedMarkup string
		expectedSpans  []match.Span
	}{
		{
			name:           "tag opened before the first copied word",
			candidate:      `the <span class="note">board</span> shall adopt rules today`,
			expectedMarkup: `<p>the <span class="copied-language"><span class="note">board</span> shall adopt rules today</span></p>`,
			expectedSpans:  []match.Span{{Start: 1, End: 6}},
		},
		{
			name:           "tag closed after the last copied word",
			candidate:      `board shall adopt rules today<br class="x"> and more`,
			expectedMarkup: `<p><span class="copied-language">board shall adopt rules today<br class="x"></span> and more</p>`,
			expectedSpans:  []match.Span{{Start: 0, End: 5}},
		},
		{
			name:           "single-token tags unchanged",
			candidate:      `the <b>board</b> shall adopt rules today`,
			expectedMarkup: `<p>the <span class="copied-language"><b>board</b> shall adopt rules today</span></p>`,
			expectedSpans:  []match.Span{{Start: 1, End: 5}},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := comparator.Compare(testCase.candidate, "board shall adopt rules today")
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if result.Markup != testCase.expectedMarkup {
				t.Errorf("Markup = %s\nwant %s", result.Markup, testCase.expectedMarkup)
			}
			if !reflect.DeepEqual(result.Spans, testCase.expectedSpans) {
				t.Errorf("Spans = %v, want %v", result.Spans, testCase.expectedSpans)
			}
		})
	}
}

func TestWidenToTags(t *testing.T) {
	original := []string{"a", "<span", `class="x">b</span>`, "c", "d<br", `class="y">`, "e"}

	testCases := []struct {
		name     string
		spans    []match.Span
		expected []match.Span
	}{
		{name: "start inside tag", spans: []match.Span{{Start: 2, End: 3}}, expected: []match.Span{{Start: 1, End: 3}}},
		{name: "end inside tag", spans: []match.Span{{Start: 3, End: 4}}, expected: []match.Span{{Start: 3, End: 5}}},
		{name: "outside tags", spans: []match.Span{{Start: 0, End: 0}, {Start: 6, End: 6}}, expected: []match.Span{{Start: 0, End: 0}, {Start: 6, End: 6}}},
		{name: "no spans", spans: nil, expected: nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := widenToTags(testCase.spans, original); !reflect.DeepEqual(got, testCase.expected) {
				t.Errorf("widenToTags(%v) = %v, want %v", testCase.spans, got, testCase.expected)
			}
		})
	}

	if got := widenToTags([]match.Span{{Start: 0, End: 1}}, []string{"a < b", "c"}); !reflect.DeepEqual(got, []match.Span{{Start: 0, End: 1}}) {
		t.Errorf("unclosed angle bracket changed spans: %v", got)
	}
}

func TestCompare_RejoinHyphenated(t *testing.T) {
	candidate := "the commis-\nsioner shall adopt rules"
	reference := "the commissioner shall adopt rules"

	plain := newTestComparator(t, DefaultOptions())
	result, err := plain.Compare(candidate, reference)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if result.Highlighted() {
		t.Errorf("expected no match without rejoining, got %v", result.Spans)
	}

	options := DefaultOptions()
	options.RejoinHyphenated = true
	rejoining := newTestComparator(t, options)
	result, err = rejoining.Compare(candidate, reference)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !reflect.DeepEqual(result.Spans, []match.Span{{Start: 0, End: 4}}) {
		t.Errorf("Spans = %v, want [[0,4]]", result.Spans)
	}
}

func TestCompare_CustomRenderer(t *testing.T) {
	options := DefaultOptions()
	options.Renderer = highlight.Renderer{BlockTag: "div", HighlightTag: "mark"}
	comparator := newTestComparator(t, options)

	result, err := comparator.Compare("x the quick brown fox jumps", "the quick brown fox jumps")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if result.Markup != "<div>x <mark>the quick brown fox jumps</mark></div>" {
		t.Errorf("Markup = %s", result.Markup)
	}
}

func TestPrepare_SharedAcrossGoroutines(t *testing.T) {
	comparator := newTestComparator(t, DefaultOptions())
	reference := comparator.Prepare(plainReference)

	if reference.TokenCount() != 9 || reference.AnchorCount() != 5 {
		t.Fatalf("TokenCount/AnchorCount = %d/%d, want 9/5", reference.TokenCount(), reference.AnchorCount())
	}

	candidates := []string{
		"a the quick brown fox jumps dog",
		"nothing to see here at all today",
		strings.ToUpper(plainReference),
	}
	expected := make([]string, len(candidates))
	for i, candidate := range candidates {
		result, err := reference.Compare(candidate)
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		expected[i] = result.Markup
	}

	var waitGroup sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for i, candidate := range candidates {
				result, err := reference.Compare(candidate)
				if err != nil {
					t.Errorf("Compare failed: %v", err)
					return
				}
				if result.Markup != expected[i] {
					t.Errorf("concurrent Markup = %s, want %s", result.Markup, expected[i])
				}
			}
		}()
	}
	waitGroup.Wait()
}

func TestNewComparator_Invalid(t *testing.T) {
	options := DefaultOptions()
	options.K = 0
	if _, err := NewComparator(options); err == nil {
		t.Error("expected error for k=0")
	}

	options = DefaultOptions()
	options.Variant = Variant(9)
	if _, err := NewComparator(options); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestNewComparator_ZeroRendererUsesDefault(t *testing.T) {
	options := DefaultOptions()
	options.Renderer = highlight.Renderer{}
	comparator := newTestComparator(t, options)
	if comparator.Options().Renderer != highlight.DefaultRenderer() {
		t.Errorf("Renderer = %+v, want default", comparator.Options().Renderer)
	}
}

func TestParseVariant(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Variant
		expectError bool
	}{
		{input: "", expected: VariantCleaned},
		{input: "cleaned", expected: VariantCleaned},
		{input: "Preserving", expected: VariantPreserving},
		{input: "position-preserving", expected: VariantPreserving},
		{input: "raw", expectError: true},
	}

	for _, testCase := range testCases {
		variant, err := ParseVariant(testCase.input)
		if testCase.expectError {
			if err == nil {
				t.Errorf("ParseVariant(%q) expected error", testCase.input)
			}
			continue
		}
		if err != nil || variant != testCase.expected {
			t.Errorf("ParseVariant(%q) = %v, %v; want %v", testCase.input, variant, err, testCase.expected)
		}
	}
}

func TestResult_Coverage(t *testing.T) {
	var empty *Result
	if empty.Coverage() != 0 {
		t.Error("nil result should have zero coverage")
	}
	result := &Result{TokenCount: 4, MatchedTokens: 1}
	if result.Coverage() != 0.25 {
		t.Errorf("Coverage = %v, want 0.25", result.Coverage())
	}
}
