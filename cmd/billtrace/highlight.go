package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coolbeans/billtrace/pkg/batch"
	"github.com/coolbeans/billtrace/pkg/config"
	"github.com/coolbeans/billtrace/pkg/metrics"
	"github.com/coolbeans/billtrace/pkg/source"
	"github.com/coolbeans/billtrace/pkg/watch"
)

func highlightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight",
		Short: "Highlight copied language in every record of a CSV file",
		Long: `Read bills from a CSV file, compare each one against the model act and
write the file back with a highlighted_markup column.

The reference is read through the configured source: a local path for the
file source, a Google Docs id for the http source, or an object key for
the s3 source.

Example:
  billtrace highlight --input static/bills.csv --reference static/original_act.txt
  billtrace highlight --input bills.csv --reference act.txt --output out.csv --format json
  billtrace highlight --input bills.csv --reference act.txt --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			referenceID, _ := cmd.Flags().GetString("reference")
			outputPath, _ := cmd.Flags().GetString("output")
			formatStr, _ := cmd.Flags().GetString("format")
			watchInputs, _ := cmd.Flags().GetBool("watch")

			if inputPath == "" {
				return fmt.Errorf("--input flag is required")
			}
			if referenceID == "" {
				return fmt.Errorf("--reference flag is required")
			}
			if formatStr != "text" && formatStr != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", formatStr)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Batch.Workers, _ = cmd.Flags().GetInt("workers")
			}

			comparator, err := newComparator(cfg)
			if err != nil {
				return err
			}
			referenceSource, err := source.New(cmd.Context(), cfg.Source, cfg.Cache)
			if err != nil {
				return err
			}

			recorder := metrics.New()
			job := batch.Job{
				InputPath:   inputPath,
				OutputPath:  outputPath,
				ReferenceID: referenceID,
				Source:      referenceSource,
				Comparator:  comparator,
				Columns: batch.Columns{
					Identifier: cfg.Batch.IdentifierColumn,
					Text:       cfg.Batch.TextColumn,
					Output:     cfg.Batch.OutputColumn,
				},
				Workers:       cfg.Batch.Workers,
				ProgressEvery: cfg.Batch.ProgressEvery,
				Metrics:       recorder,
			}

			runOnce := func(ctx context.Context) error {
				report, err := batch.Run(ctx, job)
				if err != nil {
					return err
				}
				if formatStr == "json" {
					fmt.Println(batch.FormatReportJSON(report))
				} else {
					fmt.Print(batch.FormatReport(report))
				}
				return nil
			}

			if !watchInputs {
				runErr := runOnce(cmd.Context())
				if cfg.Metrics.Textfile != "" {
					if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
						slog.Warn("failed to write metrics textfile", "error", err)
					}
				}
				return runErr
			}

			return watchAndRun(cmd.Context(), cfg, job, recorder, runOnce)
		},
	}

	cmd.Flags().StringP("input", "i", "", "Input CSV file with one bill per row")
	cmd.Flags().StringP("reference", "r", "", "Reference (model act) document id")
	cmd.Flags().StringP("output", "o", "", "Output CSV file (default <input>_with_highlights.csv)")
	cmd.Flags().StringP("format", "f", "text", "Report format (text, json)")
	cmd.Flags().Int("workers", 0, "Concurrent comparisons (default one per CPU)")
	cmd.Flags().Bool("watch", false, "Re-run whenever the input or a local reference changes")

	return cmd
}

// watchAndRun runs the batch once, then again after every change to the
// input file or, for the file source, the reference file. Metrics are
// served while watching when metrics.listen_addr is set.
func watchAndRun(ctx context.Context, cfg *config.Config, job batch.Job, recorder *metrics.Metrics, runOnce func(context.Context) error) error {
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := recorder.Serve(ctx, cfg.Metrics.ListenAddr); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	watchedPaths := []string{job.InputPath}
	if cfg.Source.Kind == config.SourceFile || cfg.Source.Kind == "" {
		referencePath := job.ReferenceID
		if !filepath.IsAbs(referencePath) && cfg.Source.BaseDir != "" {
			referencePath = filepath.Join(cfg.Source.BaseDir, referencePath)
		}
		watchedPaths = append(watchedPaths, referencePath)
	}

	watcher, err := watch.New(watchedPaths, cfg.Watch.Debounce, func(ctx context.Context, changedPath string) error {
		return runOnce(ctx)
	})
	if err != nil {
		return err
	}

	if err := runOnce(ctx); err != nil {
		slog.Error("batch run failed, waiting for changes", "error", err)
	}
	slog.Info("watching for changes", "paths", watchedPaths)
	return watcher.Run(ctx)
}
