package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/coolbeans/billtrace/pkg/match"
	"github.com/coolbeans/billtrace/pkg/source"
)

// compareOutput is the JSON form of a single comparison.
type compareOutput struct {
	Candidate     string        `json:"candidate"`
	Reference     string        `json:"reference"`
	Markup        string        `json:"markup"`
	Spans         []match.Span  `json:"spans"`
	RawMatches    []match.Match `json:"raw_matches"`
	TokenCount    int           `json:"token_count"`
	MatchedTokens int           `json:"matched_tokens"`
	Coverage      float64       `json:"coverage"`
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Highlight copied language in a single document",
		Long: `Compare one candidate file against the reference and print the candidate
as highlighted markup, or as JSON with the spans and raw matches.

The candidate is always a local file; .html files are converted to text
first. The reference is read through the configured source.

Example:
  billtrace compare --candidate bill.txt --reference act.txt
  billtrace compare --candidate bill.txt --reference act.txt --variant preserving --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidatePath, _ := cmd.Flags().GetString("candidate")
			referenceID, _ := cmd.Flags().GetString("reference")
			formatStr, _ := cmd.Flags().GetString("format")

			if candidatePath == "" {
				return fmt.Errorf("--candidate flag is required")
			}
			if referenceID == "" {
				return fmt.Errorf("--reference flag is required")
			}
			if formatStr != "html" && formatStr != "json" {
				return fmt.Errorf("unknown format %q (want html or json)", formatStr)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			comparator, err := newComparator(cfg)
			if err != nil {
				return err
			}

			candidate, err := (&source.FileSource{}).Fetch(cmd.Context(), candidatePath)
			if err != nil {
				return fmt.Errorf("failed to read candidate: %w", err)
			}
			referenceSource, err := source.New(cmd.Context(), cfg.Source, cfg.Cache)
			if err != nil {
				return err
			}
			reference, err := referenceSource.Fetch(cmd.Context(), referenceID)
			if err != nil {
				return fmt.Errorf("failed to acquire reference %s: %w", referenceID, err)
			}

			result, err := comparator.Compare(candidate.Text, reference.Text)
			if err != nil {
				return err
			}
			slog.Info("comparison complete",
				"spans", len(result.Spans),
				"tokens", result.TokenCount,
				"coverage", result.Coverage())

			if formatStr == "html" {
				fmt.Println(result.Markup)
				return nil
			}

			data, err := json.MarshalIndent(compareOutput{
				Candidate:     candidatePath,
				Reference:     referenceID,
				Markup:        result.Markup,
				Spans:         result.Spans,
				RawMatches:    result.RawMatches,
				TokenCount:    result.TokenCount,
				MatchedTokens: result.MatchedTokens,
				Coverage:      result.Coverage(),
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringP("candidate", "c", "", "Candidate (bill) text file")
	cmd.Flags().StringP("reference", "r", "", "Reference (model act) document id")
	cmd.Flags().StringP("format", "f", "html", "Output format (html, json)")

	return cmd
}
