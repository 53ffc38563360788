// Package highlight re-serializes a token stream with matched spans wrapped
// in an inline element.
package highlight

import (
	"strings"

	"github.com/coolbeans/billtrace/pkg/match"
)

// DefaultHighlightClass is the class the published site styles.
const DefaultHighlightClass = "copied-language"

// Renderer describes the markup around the output. Tokens are written
// verbatim; callers that need entity escaping must escape the tokens first.
type Renderer struct {
	// BlockTag wraps the whole output, e.g. "p".
	BlockTag string

	// HighlightTag wraps each matched span, e.g. "span".
	HighlightTag string

	// HighlightClass is set as the class attribute of HighlightTag when
	// non-empty.
	HighlightClass string
}

// DefaultRenderer returns the <p>/<span class="copied-language"> markup.
func DefaultRenderer() Renderer {
	return Renderer{
		BlockTag:       "p",
		HighlightTag:   "span",
		HighlightClass: DefaultHighlightClass,
	}
}

// Render joins tokens with single spaces, wrapping each span of token
// indices in the highlight element. spans must be sorted and
// non-overlapping, as Merge returns them. A span starting past the last
// token is ignored and an end past the last token is clamped.
func (renderer Renderer) Render(tokens []string, spans []match.Span) string {
	var builder strings.Builder
	builder.WriteString(openTag(renderer.BlockTag, ""))

	position := 0
	for _, span := range spans {
		if span.Start >= len(tokens) || span.Start < position || span.End < span.Start {
			continue
		}
		end := min(span.End, len(tokens)-1)

		if span.Start > position {
			writeTokens(&builder, tokens[position:span.Start], position > 0)
		}
		if span.Start > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(openTag(renderer.HighlightTag, renderer.HighlightClass))
		builder.WriteString(strings.Join(tokens[span.Start:end+1], " "))
		builder.WriteString(closeTag(renderer.HighlightTag))

		position = end + 1
	}
	if position < len(tokens) {
		writeTokens(&builder, tokens[position:], position > 0)
	}

	builder.WriteString(closeTag(renderer.BlockTag))
	return builder.String()
}

// Render renders with DefaultRenderer.
func Render(tokens []string, spans []match.Span) string {
	return DefaultRenderer().Render(tokens, spans)
}

func writeTokens(builder *strings.Builder, tokens []string, leadingSpace bool) {
	if leadingSpace {
		builder.WriteByte(' ')
	}
	builder.WriteString(strings.Join(tokens, " "))
}

func openTag(tag, class string) string {
	if tag == "" {
		return ""
	}
	if class == "" {
		return "<" + tag + ">"
	}
	return "<" + tag + ` class="` + class + `">`
}

func closeTag(tag string) string {
	if tag == "" {
		return ""
	}
	return "</" + tag + ">"
}
