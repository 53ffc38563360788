package match

import (
	"errors"
	"fmt"

	"github.com/coolbeans/billtrace/pkg/normalize"
)

// ErrPositionOutOfRange means a span endpoint has no entry in the position
// map. It indicates spans and map from different documents and is never
// recoverable for the comparison at hand.
var ErrPositionOutOfRange = errors.New("span endpoint outside position map")

// Remap projects spans over normalized tokens onto the original tokens they
// were derived from.
func Remap(spans []Span, positions normalize.PositionMap) ([]Span, error) {
	if len(spans) == 0 {
		return nil, nil
	}

	remapped := make([]Span, 0, len(spans))
	for _, span := range spans {
		originalStart, ok := positions.Lookup(span.Start)
		if !ok {
			return nil, fmt.Errorf("%w: start %d of span %s (map has %d entries)", ErrPositionOutOfRange, span.Start, span, len(positions))
		}
		originalEnd, ok := positions.Lookup(span.End)
		if !ok {
			return nil, fmt.Errorf("%w: end %d of span %s (map has %d entries)", ErrPositionOutOfRange, span.End, span, len(positions))
		}
		remapped = append(remapped, Span{Start: originalStart, End: originalEnd})
	}

	return remapped, nil
}
