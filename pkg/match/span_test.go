package match

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	testCases := []struct {
		name     string
		input    []Span
		expected []Span
	}{
		{
			name:     "overlapping spans",
			input:    []Span{{0, 4}, {3, 8}},
			expected: []Span{{0, 8}},
		},
		{
			name:     "adjacent spans",
			input:    []Span{{0, 4}, {5, 9}},
			expected: []Span{{0, 9}},
		},
		{
			name:     "separated spans",
			input:    []Span{{0, 4}, {6, 10}},
			expected: []Span{{0, 4}, {6, 10}},
		},
		{
			name:     "contained span",
			input:    []Span{{0, 10}, {2, 5}},
			expected: []Span{{0, 10}},
		},
		{
			name:     "unsorted input",
			input:    []Span{{20, 25}, {0, 4}, {3, 8}},
			expected: []Span{{0, 8}, {20, 25}},
		},
		{
			name:     "single span",
			input:    []Span{{7, 11}},
			expected: []Span{{7, 11}},
		},
		{
			name:     "empty input",
			input:    nil,
			expected: nil,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := Merge(testCase.input)
			if !reflect.DeepEqual(result, testCase.expected) {
				t.Errorf("Merge(%v) = %v, want %v", testCase.input, result, testCase.expected)
			}
		})
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	input := []Span{{5, 9}, {0, 6}}
	Merge(input)
	if input[0] != (Span{5, 9}) || input[1] != (Span{0, 6}) {
		t.Errorf("input was modified: %v", input)
	}
}

func TestMerge_Properties(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for iteration := 0; iteration < 500; iteration++ {
		spanCount := random.Intn(12)
		input := make([]Span, spanCount)
		covered := make(map[int]bool)
		for i := range input {
			start := random.Intn(80)
			end := start + random.Intn(10)
			input[i] = Span{Start: start, End: end}
			for tokenIndex := start; tokenIndex <= end; tokenIndex++ {
				covered[tokenIndex] = true
			}
		}

		merged := Merge(input)

		mergedCovered := make(map[int]bool)
		for i, span := range merged {
			if span.Start > span.End {
				t.Fatalf("inverted span %v in %v", span, merged)
			}
			if i > 0 && span.Start <= merged[i-1].End+1 {
				t.Fatalf("spans %v and %v overlap or touch (input %v)", merged[i-1], span, input)
			}
			for tokenIndex := span.Start; tokenIndex <= span.End; tokenIndex++ {
				mergedCovered[tokenIndex] = true
			}
		}
		if !reflect.DeepEqual(covered, mergedCovered) {
			t.Fatalf("coverage changed for input %v: merged %v", input, merged)
		}
		if again := Merge(merged); !reflect.DeepEqual(again, merged) {
			t.Fatalf("Merge is not idempotent: %v then %v", merged, again)
		}
	}
}

func TestSpan_LenAndContains(t *testing.T) {
	span := Span{Start: 3, End: 7}
	if span.Len() != 5 {
		t.Errorf("Len() = %d, want 5", span.Len())
	}
	if !span.Contains(3) || !span.Contains(7) || span.Contains(8) || span.Contains(2) {
		t.Errorf("Contains gave wrong answers for %v", span)
	}
	if span.String() != "[3,7]" {
		t.Errorf("String() = %q, want [3,7]", span.String())
	}
}

func TestCovered(t *testing.T) {
	if got := Covered([]Span{{0, 4}, {10, 10}}); got != 6 {
		t.Errorf("Covered = %d, want 6", got)
	}
	if got := Covered(nil); got != 0 {
		t.Errorf("Covered(nil) = %d, want 0", got)
	}
}
