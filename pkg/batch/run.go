package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/billtrace/pkg/compare"
	"github.com/coolbeans/billtrace/pkg/logger"
	"github.com/coolbeans/billtrace/pkg/metrics"
	"github.com/coolbeans/billtrace/pkg/source"
)

// Job describes one batch run.
type Job struct {
	InputPath string

	// OutputPath defaults to DefaultOutputPath(InputPath).
	OutputPath string

	// ReferenceID identifies the reference document in Source.
	ReferenceID string
	Source      source.Source
	Comparator  *compare.Comparator

	// Columns defaults to DefaultColumns when zero.
	Columns Columns
	Workers int

	// ProgressEvery is passed to the Processor; zero disables progress
	// logging.
	ProgressEvery int
	Metrics       *metrics.Metrics
}

// Run reads the input CSV, acquires the reference, compares every record
// and writes the output file. A missing input or an unavailable reference
// aborts the run before anything is written; failures of single records
// only show up in the report.
func Run(ctx context.Context, job Job) (report *Report, err error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "batch")

	defer func() {
		job.Metrics.ObserveRun(err)
	}()

	if job.Source == nil || job.Comparator == nil {
		return nil, errors.New("batch job needs a source and a comparator")
	}
	columns := job.Columns
	if columns == (Columns{}) {
		columns = DefaultColumns()
	}
	outputPath := job.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutputPath(job.InputPath)
	}
	if sameFile(job.InputPath, outputPath) {
		return nil, fmt.Errorf("output path %s would overwrite the input", outputPath)
	}

	table, err := readInput(job.InputPath, columns)
	if err != nil {
		return nil, err
	}

	log.Info("acquiring reference", "reference", job.ReferenceID)
	document, err := job.Source.Fetch(ctx, job.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire reference %s: %w", job.ReferenceID, err)
	}

	reference := job.Comparator.Prepare(document.Text)
	job.Metrics.SetReferenceAnchors(reference.AnchorCount())
	if anchorLength := job.Comparator.Options().K; reference.TokenCount() < anchorLength {
		log.Warn("reference is shorter than the anchor length, no record can match",
			"tokens", reference.TokenCount(), "k", anchorLength)
	}

	for _, skipped := range table.Skipped {
		log.Warn("skipping record", "line", skipped.Line, "identifier", skipped.Identifier, "reason", skipped.Reason)
	}
	job.Metrics.ObserveSkipped(len(table.Skipped))

	log.Info("processing records", "records", len(table.Records), "skipped", len(table.Skipped), "input", job.InputPath)

	processor := &Processor{
		Reference:     reference,
		Workers:       job.Workers,
		ProgressEvery: job.ProgressEvery,
		Metrics:       job.Metrics,
		Logger:        log,
	}
	outcomes, err := processor.Process(ctx, table.Records)
	if err != nil {
		return nil, err
	}

	err = writeFileAtomic(outputPath, func(writer io.Writer) error {
		_, writeErr := WriteRecords(writer, table.Header, outcomes, columns)
		return writeErr
	})
	if err != nil {
		return nil, err
	}

	report = newReport(table.Skipped, outcomes)
	report.RunID = runID
	report.InputPath = job.InputPath
	report.OutputPath = outputPath
	report.ReferenceID = job.ReferenceID
	report.Duration = time.Since(started)

	log.Info("batch complete",
		"output", outputPath,
		"highlighted", report.Highlighted,
		"unmatched", report.Unmatched,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)
	return report, nil
}

func readInput(inputPath string, columns Columns) (*Table, error) {
	inputFile, err := os.Open(inputPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("input file %s not found: %w", inputPath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", inputPath, err)
	}
	defer inputFile.Close()

	table, err := ReadRecords(inputFile, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	return table, nil
}

func sameFile(first, second string) bool {
	firstAbsolute, err := filepath.Abs(first)
	if err != nil {
		return false
	}
	secondAbsolute, err := filepath.Abs(second)
	if err != nil {
		return false
	}
	return firstAbsolute == secondAbsolute
}
