package source

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled patterns for HTML-to-text conversion.
var (
	reBodyOpen    = regexp.MustCompile(`(?i)<body[^>]*>`)
	reBodyClose   = regexp.MustCompile(`(?i)</body\s*>`)
	reScript      = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle       = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reComment     = regexp.MustCompile(`(?s)<!--.*?-->`)
	reListItem    = regexp.MustCompile(`(?i)<li[^>]*>`)
	reListItemEnd = regexp.MustCompile(`(?i)</li\s*>`)
	reBlockEnd    = regexp.MustCompile(`(?i)</(?:p|h[1-6]|div|tr)\s*>`)
	reLineBreak   = regexp.MustCompile(`(?i)<br\s*/?>`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
	reMultiNL     = regexp.MustCompile(`\n{3,}`)
	reMultiSpace  = regexp.MustCompile(`[^\S\n]{2,}`)
)

var quoteStraightener = strings.NewReplacer(
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2018", "'",
	"\u2019", "'",
	"\u00a0", " ",
)

// ExtractText converts an HTML document export to plain text. Paragraphs,
// headings and table rows end with a newline, list items become "* " lines,
// links keep only their text, entities are decoded and curly quotes are
// straightened.
func ExtractText(rawHTML []byte) string {
	content := string(rawHTML)

	// Offsets come from the original bytes; lower-casing can change the
	// length of a string.
	if location := reBodyOpen.FindStringIndex(content); location != nil {
		content = content[location[1]:]
	}
	if location := reBodyClose.FindStringIndex(content); location != nil {
		content = content[:location[0]]
	}

	content = reScript.ReplaceAllString(content, "")
	content = reStyle.ReplaceAllString(content, "")
	content = reComment.ReplaceAllString(content, "")

	content = reListItem.ReplaceAllString(content, "* ")
	content = reListItemEnd.ReplaceAllString(content, "\n")
	content = reBlockEnd.ReplaceAllString(content, "\n")
	content = reLineBreak.ReplaceAllString(content, "\n")
	content = reTag.ReplaceAllString(content, "")

	content = html.UnescapeString(content)
	content = quoteStraightener.Replace(content)

	content = reMultiSpace.ReplaceAllString(content, " ")
	content = reMultiNL.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
