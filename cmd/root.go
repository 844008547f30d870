package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediaparse/titlebench/internal/config"
)

var cfg *config.Config

var (
	flagResults string
	flagVersion string
	flagRetest  bool
	flagStats   bool
	flagFormat  string
	flagTitle   string
	flagSave    bool
)

var rootCmd = &cobra.Command{
	Use:   "titlebench [dataset]",
	Short: "Interactive accuracy harness for torrent-title parsers",
	Long: "Samples titles from a dataset, sends each to the parser service under test,\n" +
		"and records the operator's correctness verdict per parser version. Results are\n" +
		"kept in a JSON file so later versions can be compared against the same titles.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if cmd.Flags().Changed("results") {
			cfg.Results = flagResults
		}
		if cmd.Flags().Changed("version") {
			cfg.Version = flagVersion
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagStats {
			return runStats(flagFormat)
		}
		if flagTitle != "" {
			return runSingleTitle(cmd.Context(), flagTitle, flagSave)
		}
		if len(args) == 0 {
			return fmt.Errorf("either a dataset file or a single title (--title) is required")
		}
		return runSession(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagResults, "results", "", "path to the results file (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagVersion, "version", "", "parser version under test (default from config)")

	rootCmd.Flags().BoolVar(&flagRetest, "retest", false, "retest previously tested titles")
	rootCmd.Flags().BoolVar(&flagStats, "stats", false, "print statistics and exit")
	rootCmd.Flags().StringVar(&flagFormat, "format", "table", "stats output format: table, json or yaml")
	rootCmd.Flags().StringVarP(&flagTitle, "title", "t", "", "test a single title instead of sampling a dataset")
	rootCmd.Flags().BoolVarP(&flagSave, "save", "s", false, "record the verdict in single-title mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
