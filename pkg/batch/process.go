package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/billtrace/pkg/compare"
	"github.com/coolbeans/billtrace/pkg/logger"
	"github.com/coolbeans/billtrace/pkg/metrics"
)

// Outcome statuses.
const (
	StatusHighlighted = metrics.StatusHighlighted
	StatusUnmatched   = metrics.StatusUnmatched
	StatusSkipped     = metrics.StatusSkipped
	StatusFailed      = metrics.StatusFailed
)

// Outcome is the result of comparing one record. Err is set when the
// comparison failed; Result is nil in that case.
type Outcome struct {
	Record   Record
	Result   *compare.Result
	Err      error
	Duration time.Duration
}

// Status classifies the outcome.
func (outcome Outcome) Status() string {
	switch {
	case outcome.Err != nil || outcome.Result == nil:
		return StatusFailed
	case outcome.Result.Highlighted():
		return StatusHighlighted
	default:
		return StatusUnmatched
	}
}

// Processor compares records against a prepared reference on a bounded pool
// of goroutines. The reference is only read, so all workers share it.
type Processor struct {
	Reference *compare.Reference

	// Workers bounds concurrent comparisons; zero means runtime.NumCPU.
	Workers int

	// ProgressEvery is the number of records between progress lines; zero
	// disables progress logging.
	ProgressEvery int

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Process compares every record and returns outcomes in input order. A
// failed comparison is reported in its Outcome and does not affect other
// records. Cancelling ctx stops scheduling and returns the context error.
func (processor *Processor) Process(ctx context.Context, records []Record) ([]Outcome, error) {
	if processor.Reference == nil {
		return nil, errors.New("processor has no reference")
	}

	log := processor.Logger
	if log == nil {
		log = logger.FromContext(ctx).With("component", "batch")
	}

	workers := processor.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	outcomes := make([]Outcome, len(records))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	var completed atomic.Int64
	for i := range records {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			outcome := processor.compareRecord(records[i])
			outcomes[i] = outcome
			if outcome.Err != nil {
				log.Warn("record failed", "line", outcome.Record.Line, "identifier", outcome.Record.Identifier, "error", outcome.Err)
			}

			done := completed.Add(1)
			if processor.ProgressEvery > 0 && done%int64(processor.ProgressEvery) == 0 {
				log.Info("progress", "processed", done, "total", len(records))
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}
	return outcomes, nil
}

func (processor *Processor) compareRecord(record Record) Outcome {
	started := time.Now()
	result, err := processor.Reference.Compare(record.Text)
	outcome := Outcome{
		Record:   record,
		Result:   result,
		Err:      err,
		Duration: time.Since(started),
	}
	spanCount := 0
	if err != nil {
		outcome.Result = nil
	} else if result != nil {
		spanCount = len(result.Spans)
	}

	processor.Metrics.ObserveComparison(outcome.Status(), spanCount, outcome.Result.Coverage(), outcome.Duration)
	return outcome
}
