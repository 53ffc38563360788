package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/billtrace/pkg/compare"
	"github.com/coolbeans/billtrace/pkg/config"
	"github.com/coolbeans/billtrace/pkg/logger"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "billtrace",
		Short: "Find language copied from a model act",
		Long: `Billtrace finds the passages of bills that were copied verbatim from a
model act and marks them up for display.

Both texts are normalized (markup, section numbers, parentheticals and
punctuation removed), every 5-token window of the model act is indexed,
and each bill is scanned for windows that occur in the act. Hits are
extended token by token, merged, and rendered as highlighted spans.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file (YAML)")
	flags.Int("k", 0, "Anchor length in tokens (default from config: 5)")
	flags.String("policy", "", "Scan policy: exhaustive or skip-ahead")
	flags.String("alignment", "", "Extension alignment: alignment-naive or anchor-relative")
	flags.String("variant", "", "Rendered text: cleaned or preserving")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")

	rootCmd.AddCommand(highlightCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(fetchCmd())

	return rootCmd
}

// loadConfig reads the configuration file and environment, applies the
// persistent flags that were set on the command line and configures
// logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("k") {
		cfg.Matching.K, _ = cmd.Flags().GetInt("k")
	}
	overrides := map[string]*string{
		"policy":     &cfg.Matching.Policy,
		"alignment":  &cfg.Matching.Alignment,
		"variant":    &cfg.Matching.Variant,
		"log-level":  &cfg.Logging.Level,
		"log-format": &cfg.Logging.Format,
	}
	for flagName, target := range overrides {
		if cmd.Flags().Changed(flagName) {
			*target, _ = cmd.Flags().GetString(flagName)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newComparator(cfg *config.Config) (*compare.Comparator, error) {
	options, err := cfg.ComparatorOptions()
	if err != nil {
		return nil, err
	}
	return compare.NewComparator(options)
}
