package match

import (
	"errors"
	"reflect"
	"testing"

	"github.com/coolbeans/billtrace/pkg/normalize"
)

func TestRemap(t *testing.T) {
	positions := normalize.PositionMap{2, 3, 4}

	remapped, err := Remap([]Span{{Start: 0, End: 2}}, positions)
	if err != nil {
		t.Fatalf("Remap failed: %v", err)
	}
	if !reflect.DeepEqual(remapped, []Span{{Start: 2, End: 4}}) {
		t.Errorf("Remap = %v, want [[2,4]]", remapped)
	}
}

func TestRemap_FromNormalizedDocument(t *testing.T) {
	document := normalize.TokenizeWithPositions("1.1 (see note) the fox runs (a) far away")
	// Tokens: the fox runs far away; originals 3 4 5 7 8.
	remapped, err := Remap([]Span{{Start: 1, End: 3}}, document.Positions)
	if err != nil {
		t.Fatalf("Remap failed: %v", err)
	}
	if !reflect.DeepEqual(remapped, []Span{{Start: 4, End: 7}}) {
		t.Errorf("Remap = %v, want [[4,7]]", remapped)
	}
}

func TestRemap_OutOfRange(t *testing.T) {
	positions := normalize.PositionMap{2, 3, 4}

	testCases := []struct {
		name  string
		spans []Span
	}{
		{name: "end past map", spans: []Span{{Start: 1, End: 3}}},
		{name: "negative start", spans: []Span{{Start: -1, End: 1}}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Remap(testCase.spans, positions)
			if !errors.Is(err, ErrPositionOutOfRange) {
				t.Errorf("expected ErrPositionOutOfRange, got %v", err)
			}
		})
	}
}

func TestRemap_Empty(t *testing.T) {
	remapped, err := Remap(nil, normalize.PositionMap{})
	if err != nil || remapped != nil {
		t.Errorf("Remap(nil) = %v, %v; want nil, nil", remapped, err)
	}
}
