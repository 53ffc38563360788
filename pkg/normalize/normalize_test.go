package normalize

import (
	"reflect"
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text is unchanged",
			input:    "the quick brown fox",
			expected: "the quick brown fox",
		},
		{
			name:     "style block and tags are removed",
			input:    `<style type="text/css">p { color: red; }</style><p>The <b>Commissioner</b> shall</p>`,
			expected: "The Commissioner shall",
		},
		{
			name:     "line number at start of line",
			input:    "1.1 A bill for an act\n1.2 relating to health",
			expected: "A bill for an act relating to health",
		},
		{
			name:     "line number in the middle of text",
			input:    "relating to 2.11 health care",
			expected: "relating to health care",
		},
		{
			name:     "digit glued to word end before a line break",
			input:    "must be desig6 nated by the board",
			expected: "must be designated by the board",
		},
		{
			name:     "digit glued to word start",
			input:    "must be 1initiated by",
			expected: "must be initiated by",
		},
		{
			name:     "digit embedded inside a word",
			input:    "must be desig6nated by",
			expected: "must be designated by",
		},
		{
			name:     "standalone numbers are removed",
			input:    "section 12 of chapter 3.5 applies",
			expected: "section of chapter applies",
		},
		{
			name:     "parenthetical content is removed",
			input:    "the commissioner (as defined in section 4) shall",
			expected: "the commissioner shall",
		},
		{
			name:     "punctuation becomes whitespace",
			input:    `"Patient," said the board; it's final: done!`,
			expected: "Patient said the board it s final done",
		},
		{
			name:     "unclosed parenthesis is treated as punctuation",
			input:    "the board (shall decide",
			expected: "the board shall decide",
		},
		{
			name:     "non-breaking spaces collapse like spaces",
			input:    "the\u00a0\u00a0board  shall\u2003act",
			expected: "the board shall act",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "only noise",
			input:    "1.1 (see note) 42 ;",
			expected: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := Clean(testCase.input)
			if result != testCase.expected {
				t.Errorf("Clean(%q) = %q, want %q", testCase.input, result, testCase.expected)
			}
		})
	}
}

func TestTokenize_LoneNumberContributesNoToken(t *testing.T) {
	tokens := Tokenize("the 2024 act")
	expected := []string{"the", "act"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Tokenize = %v, want %v", tokens, expected)
	}
}

func TestTokenize_KeepsOriginalCase(t *testing.T) {
	tokens := Tokenize("The Commissioner")
	if tokens[0] != "The" || tokens[1] != "Commissioner" {
		t.Errorf("expected case to be kept, got %v", tokens)
	}
}

// Holds for text in which no digit glued to the end of a word is followed
// by a bare number; see TestTokenize_GluedDigitBeforeNumber.
func TestTokenize_Idempotent(t *testing.T) {
	inputs := []string{
		"1.1 A bill for an act relating to health; amending Minnesota Statutes 2024, section 62J.23.",
		`<p>The <span class="x">Commissioner</span> (or designee) must be desig6 nated.</p>`,
		"Sec. 2. [145.4243] WOMAN'S RIGHT TO KNOW (a) The state health department shall",
		"  \n\t ",
		"it's the state's 3rd \"model\" act",
	}

	for _, input := range inputs {
		first := Tokenize(input)
		second := Tokenize(strings.Join(first, " "))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("cleaning is not a fixed point for %q:\nfirst:  %v\nsecond: %v", input, first, second)
		}
	}
}

func TestTokenize_GluedDigitBeforeNumber(t *testing.T) {
	// The split-word rule eats "6 12" into "desig12" and the leading-digit
	// rule leaves "desig2". A second pass then glues "desig2 the".
	first := Tokenize("must be desig6 12 the board")
	expectedFirst := []string{"must", "be", "desig2", "the", "board"}
	if !reflect.DeepEqual(first, expectedFirst) {
		t.Fatalf("first pass = %v, want %v", first, expectedFirst)
	}

	second := Tokenize(strings.Join(first, " "))
	expectedSecond := []string{"must", "be", "desigthe", "board"}
	if !reflect.DeepEqual(second, expectedSecond) {
		t.Errorf("second pass = %v, want %v", second, expectedSecond)
	}
}

func TestFields(t *testing.T) {
	fields := Fields(" a\u00a0b\tc\n\nd ")
	expected := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(fields, expected) {
		t.Errorf("Fields = %v, want %v", fields, expected)
	}
}
