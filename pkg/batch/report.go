package batch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report summarizes a batch run.
type Report struct {
	RunID       string        `json:"run_id"`
	InputPath   string        `json:"input_path"`
	OutputPath  string        `json:"output_path"`
	ReferenceID string        `json:"reference_id"`
	Total       int           `json:"total"`
	Highlighted int           `json:"highlighted"`
	Unmatched   int           `json:"unmatched"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Entries     []ReportEntry `json:"entries"`
	Duration    time.Duration `json:"duration_ns"`
}

// ReportEntry is one input row in a Report.
type ReportEntry struct {
	Line       int           `json:"line"`
	Identifier string        `json:"identifier,omitempty"`
	Status     string        `json:"status"`
	Spans      int           `json:"spans,omitempty"`
	Coverage   float64       `json:"coverage,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
}

// newReport counts outcomes and skipped rows. Entries are ordered by input
// line.
func newReport(skipped []Skipped, outcomes []Outcome) *Report {
	report := &Report{
		Total:   len(skipped) + len(outcomes),
		Entries: make([]ReportEntry, 0, len(skipped)+len(outcomes)),
	}

	for _, row := range skipped {
		report.Skipped++
		report.Entries = append(report.Entries, ReportEntry{
			Line:       row.Line,
			Identifier: row.Identifier,
			Status:     StatusSkipped,
			Error:      row.Reason,
		})
	}

	for _, outcome := range outcomes {
		entry := ReportEntry{
			Line:       outcome.Record.Line,
			Identifier: outcome.Record.Identifier,
			Status:     outcome.Status(),
			Duration:   outcome.Duration,
		}
		switch entry.Status {
		case StatusFailed:
			report.Failed++
			if outcome.Err != nil {
				entry.Error = outcome.Err.Error()
			}
		case StatusHighlighted:
			report.Highlighted++
		default:
			report.Unmatched++
		}
		if outcome.Result != nil {
			entry.Spans = len(outcome.Result.Spans)
			entry.Coverage = outcome.Result.Coverage()
		}
		report.Entries = append(report.Entries, entry)
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].Line < report.Entries[j].Line
	})
	return report
}

// FormatReport formats a Report for terminal output.
func FormatReport(report *Report) string {
	var builder strings.Builder

	builder.WriteString("\nHighlight Report\n")
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	if report.OutputPath != "" {
		builder.WriteString(fmt.Sprintf("Input: %s\nOutput: %s\n", report.InputPath, report.OutputPath))
	}
	builder.WriteString(fmt.Sprintf("Total: %d | Highlighted: %d | Unmatched: %d | Skipped: %d | Failed: %d\n",
		report.Total, report.Highlighted, report.Unmatched, report.Skipped, report.Failed))
	builder.WriteString(strings.Repeat("─", 60) + "\n")

	for _, entry := range report.Entries {
		status := entry.Status
		switch status {
		case StatusHighlighted:
			status = "[OK]"
		case StatusUnmatched:
			status = "[NONE]"
		case StatusSkipped:
			status = "[SKIP]"
		case StatusFailed:
			status = "[FAIL]"
		}

		identifier := entry.Identifier
		if identifier == "" {
			identifier = fmt.Sprintf("line %d", entry.Line)
		}
		line := fmt.Sprintf("  %-8s %-30s", status, identifier)
		if entry.Spans > 0 {
			line += fmt.Sprintf(" (%d spans, %.1f%% copied)", entry.Spans, entry.Coverage*100)
		}
		if entry.Error != "" {
			line += fmt.Sprintf(" error: %s", entry.Error)
		}
		builder.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	if report.Duration > 0 {
		builder.WriteString(fmt.Sprintf("\nCompleted in %s\n", report.Duration.Round(time.Millisecond)))
	}
	return builder.String()
}

// FormatReportJSON formats a Report as JSON.
func FormatReportJSON(report *Report) string {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
