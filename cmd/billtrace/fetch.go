package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/billtrace/pkg/source"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a reference document as plain text",
		Long: `Fetch a document through the configured source and save its plain text.

With source.kind http the id is a Google Docs document id; set
source.http.credentials_file and source.http.token_file for private
documents. With source.kind s3 the id is an object key.

Example:
  BILLTRACE_SOURCE_KIND=http billtrace fetch --id 1AbC... --output static/original_act.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, _ := cmd.Flags().GetString("id")
			outputPath, _ := cmd.Flags().GetString("output")

			if documentID == "" {
				return fmt.Errorf("--id flag is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			referenceSource, err := source.New(cmd.Context(), cfg.Source, cfg.Cache)
			if err != nil {
				return err
			}

			document, err := referenceSource.Fetch(cmd.Context(), documentID)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", documentID, err)
			}

			if outputPath == "" {
				fmt.Println(document.Text)
				return nil
			}
			if err := os.WriteFile(outputPath, []byte(document.Text+"\n"), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}
			fmt.Printf("Saved %s (%d characters) to %s\n", documentID, len(document.Text), outputPath)
			return nil
		},
	}

	cmd.Flags().String("id", "", "Document id (path, Google Docs id or object key)")
	cmd.Flags().StringP("output", "o", "", "Output text file (default stdout)")

	return cmd
}
