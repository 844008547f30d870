package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediaparse/titlebench/internal/store"
)

var exportDB string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the results file to a SQLite database",
	Long: "Flattens the JSON results document into versions and judgments tables for\n" +
		"analysis tooling. The JSON file remains the source of truth; each export\n" +
		"replaces the database contents.",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := store.NewJSON(cfg.Results).Load()
		if err != nil {
			return eris.Wrap(err, "load results")
		}

		rows, err := store.ExportSQLite(cmd.Context(), exportDB, doc)
		if err != nil {
			return eris.Wrap(err, "export results")
		}

		zap.L().Info("export complete",
			zap.String("db", exportDB),
			zap.Int("judgments", rows),
		)
		fmt.Printf("Exported %d judgments across %d versions to %s\n", rows, len(doc.Versions), exportDB)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "parser_test_results.db", "SQLite database path")
	rootCmd.AddCommand(exportCmd)
}
