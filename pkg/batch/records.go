// Package batch runs every candidate record of a CSV file against one
// reference text and writes the file back with a highlighted markup column.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingColumn is returned when the input has no header row or the
// header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

const byteOrderMark = "\ufeff"

// Columns names the CSV columns a batch reads and writes.
type Columns struct {
	Identifier string
	Text       string
	Output     string
}

// DefaultColumns matches the bills export: records keyed by state.
func DefaultColumns() Columns {
	return Columns{
		Identifier: "state",
		Text:       "text",
		Output:     "highlighted_markup",
	}
}

// Record is one candidate row. Fields holds every cell of the row in header
// order so the row can be written back unchanged.
type Record struct {
	Line       int
	Identifier string
	Text       string
	Fields     []string
}

// Skipped is a row left out of the batch.
type Skipped struct {
	Line       int    `json:"line"`
	Identifier string `json:"identifier,omitempty"`
	Reason     string `json:"reason"`
}

// Table is a parsed input file.
type Table struct {
	Header  []string
	Records []Record
	Skipped []Skipped
}

// ReadRecords parses CSV input with a header row. Rows without an
// identifier or with blank text are skipped, as are rows with the wrong
// number of fields and rows the CSV parser rejects. Only a missing header or
// a missing required column is fatal.
func ReadRecords(reader io.Reader, columns Columns) (*Table, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: input has no header row", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	header = normalizeHeader(header)
	identifierIndex := columnIndex(header, columns.Identifier)
	if identifierIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columns.Identifier)
	}
	textIndex := columnIndex(header, columns.Text)
	if textIndex < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columns.Text)
	}

	table := &Table{Header: header}
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseError *csv.ParseError
		if errors.As(err, &parseError) {
			table.Skipped = append(table.Skipped, Skipped{
				Line:   parseError.StartLine,
				Reason: parseError.Err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}

		line, _ := csvReader.FieldPos(0)
		if len(row) != len(header) {
			table.Skipped = append(table.Skipped, Skipped{
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(row)),
			})
			continue
		}

		record := Record{
			Line:       line,
			Identifier: strings.TrimSpace(row[identifierIndex]),
			Text:       row[textIndex],
			Fields:     row,
		}
		switch {
		case record.Identifier == "":
			table.Skipped = append(table.Skipped, Skipped{Line: line, Reason: "missing " + columns.Identifier})
		case strings.TrimSpace(record.Text) == "":
			table.Skipped = append(table.Skipped, Skipped{Line: line, Identifier: record.Identifier, Reason: "blank " + columns.Text})
		default:
			table.Records = append(table.Records, record)
		}
	}

	return table, nil
}

func normalizeHeader(header []string) []string {
	normalized := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, byteOrderMark)
		}
		normalized[i] = strings.TrimSpace(name)
	}
	return normalized
}

// columnIndex returns the position of name in header, or -1.
func columnIndex(header []string, name string) int {
	for i, column := range header {
		if column == name {
			return i
		}
	}
	return -1
}
