package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// WriteRecords writes header and the rows of the successful outcomes with
// the highlighted markup in columns.Output. The column is appended when the
// header does not have it and overwritten otherwise. Failed outcomes are
// left out. It returns the number of rows written.
func WriteRecords(writer io.Writer, header []string, outcomes []Outcome, columns Columns) (int, error) {
	outputHeader := slices.Clone(header)
	outputIndex := columnIndex(outputHeader, columns.Output)
	if outputIndex < 0 {
		outputHeader = append(outputHeader, columns.Output)
		outputIndex = len(outputHeader) - 1
	}

	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(outputHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	written := 0
	for _, outcome := range outcomes {
		if outcome.Status() == StatusFailed {
			continue
		}

		row := make([]string, len(outputHeader))
		copy(row, outcome.Record.Fields)
		row[outputIndex] = outcome.Result.Markup
		if err := csvWriter.Write(row); err != nil {
			return written, fmt.Errorf("failed to write record on line %d: %w", outcome.Record.Line, err)
		}
		written++
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return written, fmt.Errorf("failed to flush output: %w", err)
	}
	return written, nil
}

// DefaultOutputPath places the output next to the input, replacing the .csv
// extension with _with_highlights.csv.
func DefaultOutputPath(inputPath string) string {
	directory, name := filepath.Split(inputPath)
	extension := filepath.Ext(name)
	if strings.EqualFold(extension, ".csv") {
		name = strings.TrimSuffix(name, extension)
	}
	return filepath.Join(directory, name+"_with_highlights.csv")
}

// writeFileAtomic writes through a temporary file in the destination
// directory and renames it over path, so a failed run never leaves a
// truncated output behind.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", directory, err)
	}
	temporaryPath := temporary.Name()
	_ = os.Chmod(temporaryPath, 0o644)

	if err := write(temporary); err != nil {
		_ = temporary.Close()
		_ = os.Remove(temporaryPath)
		return err
	}
	if err := temporary.Sync(); err != nil {
		_ = temporary.Close()
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("failed to sync %s: %w", temporaryPath, err)
	}
	if err := temporary.Close(); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("failed to close %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("failed to move output into place at %s: %w", path, err)
	}
	return nil
}
