package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/jsontables/internal/config"
	"github.com/dbsmedya/jsontables/internal/converter"
	"github.com/dbsmedya/jsontables/internal/logger"
)

var (
	inspectFormat        string
	inspectNaming        string
	inspectIncludeEmpty  bool
	inspectGroupSiblings bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.json>",
	Short: "List the tables a conversion would produce",
	Long: `Inspect runs table discovery and flattening without writing anything.

The report shows:
  - Every discovered table with its row and column counts
  - The JSON path each table was found at
  - Columns that would be written as dates

Names are sanitized for the selected format, so inspect with --format xlsx
to preview sheet names.

Example:
  jsontables inspect orders.json --naming full`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "",
		"Output format used for name sanitization (xlsx, csv, sqlite, mysql)")
	inspectCmd.Flags().StringVar(&inspectNaming, "naming", "",
		"Table naming mode (last, full)")
	inspectCmd.Flags().BoolVar(&inspectIncludeEmpty, "include-empty", false,
		"List zero-row tables for empty arrays")
	inspectCmd.Flags().BoolVar(&inspectGroupSiblings, "group-siblings", false,
		"Merge sibling arrays that share a schema into one table")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Overrides{
		Format:        inspectFormat,
		NamingMode:    inspectNaming,
		IncludeEmpty:  inspectIncludeEmpty,
		GroupSiblings: inspectGroupSiblings,
	})
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	conv, err := converter.New(cfg, log)
	if err != nil {
		return err
	}

	result, _, err := conv.Inspect(args[0])
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), "Inspection", result)
	return nil
}
