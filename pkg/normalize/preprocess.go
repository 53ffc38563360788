package normalize

import (
	"regexp"
	"strings"
)

// hyphenatedLineEndPattern matches lines ending with a hyphen (word break across lines).
var hyphenatedLineEndPattern = regexp.MustCompile(`[a-zA-Z]-$`)

// RejoinHyphenated merges words split across a line break by a trailing
// hyphen, as produced by PDF-to-text conversion of printed bills
// ("desig-\nnated" becomes "designated"). A line is only joined with the
// next one when the next line starts with a lowercase letter; a capital
// letter usually means a new sentence or heading, not a continuation.
func RejoinHyphenated(raw string) string {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}

	result := make([]string, 0, len(lines))
	for lineIndex := 0; lineIndex < len(lines); lineIndex++ {
		currentLine := lines[lineIndex]
		trimmedCurrent := strings.TrimRight(currentLine, " \t\r")

		if lineIndex+1 < len(lines) && hyphenatedLineEndPattern.MatchString(trimmedCurrent) {
			trimmedNext := strings.TrimSpace(lines[lineIndex+1])
			if len(trimmedNext) > 0 && trimmedNext[0] >= 'a' && trimmedNext[0] <= 'z' {
				// The joined line is revisited so chained breaks also join.
				lines[lineIndex+1] = trimmedCurrent[:len(trimmedCurrent)-1] + trimmedNext
				continue
			}
		}

		result = append(result, currentLine)
	}

	return strings.Join(result, "\n")
}
