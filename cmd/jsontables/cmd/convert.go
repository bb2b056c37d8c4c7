package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/jsontables/internal/config"
	"github.com/dbsmedya/jsontables/internal/converter"
	"github.com/dbsmedya/jsontables/internal/logger"
)

// convert flags
var (
	convertFormat        string
	convertOut           string
	convertBaseName      string
	convertNaming        string
	convertIncludeEmpty  bool
	convertGroupSiblings bool
	convertAutofit       bool
	convertFreeze        bool
	convertFilters       bool
	convertNoDates       bool
	convertNoTimestamp   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.json>",
	Short: "Convert a JSON document into tables",
	Long: `Convert discovers every array of objects in the document, flattens each
one into a table and writes the tables with the selected output format.

Outputs:
  - xlsx: one workbook, one sheet per table plus a summary sheet
  - csv: one file per table
  - sqlite: one database file, one table per table
  - mysql: tables created in the configured database

Example:
  jsontables convert orders.json --format xlsx --out reports --freeze --filters`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "",
		"Output format (xlsx, csv, sqlite, mysql)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "",
		"Output directory")
	convertCmd.Flags().StringVar(&convertBaseName, "base-name", "",
		"Base name of the output files")
	convertCmd.Flags().StringVar(&convertNaming, "naming", "",
		"Table naming mode (last, full)")
	convertCmd.Flags().BoolVar(&convertIncludeEmpty, "include-empty", false,
		"Emit zero-row tables for empty arrays")
	convertCmd.Flags().BoolVar(&convertGroupSiblings, "group-siblings", false,
		"Merge sibling arrays that share a schema into one table")
	convertCmd.Flags().BoolVar(&convertAutofit, "autofit", false,
		"Fit xlsx column widths to their content")
	convertCmd.Flags().BoolVar(&convertFreeze, "freeze", false,
		"Freeze the xlsx header row")
	convertCmd.Flags().BoolVar(&convertFilters, "filters", false,
		"Add xlsx auto filters on the header row")
	convertCmd.Flags().BoolVar(&convertNoDates, "no-dates", false,
		"Skip date column detection")
	convertCmd.Flags().BoolVar(&convertNoTimestamp, "no-timestamp", false,
		"Do not append a timestamp to output names")

	rootCmd.AddCommand(convertCmd)
}

// convertOverrides returns the convert flag values as config overrides.
func convertOverrides() config.Overrides {
	return config.Overrides{
		Format:        convertFormat,
		OutputDir:     convertOut,
		BaseName:      convertBaseName,
		NamingMode:    convertNaming,
		IncludeEmpty:  convertIncludeEmpty,
		GroupSiblings: convertGroupSiblings,
		Autofit:       convertAutofit,
		Freeze:        convertFreeze,
		Filters:       convertFilters,
		NoDates:       convertNoDates,
		NoTimestamp:   convertNoTimestamp,
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(convertOverrides())
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

	ctx, cancel := converter.SignalContext(commandContext(cmd), func(sig os.Signal) {
		log.Warnw("Received signal, stopping conversion", "signal", sig.String())
	})
	defer cancel()

	result, err := conv.Run(ctx, input)
	if err != nil {
		printFailure(out, "Conversion failed: %v", err)
		return err
	}

	printResult(out, "Conversion", result)
	fmt.Fprintln(out)
	if len(result.Outputs) == 0 {
		printWarning(out, "Nothing written")
	} else {
		printSuccess(out, "Wrote %d table(s), %d row(s)", len(result.Tables), result.Rows)
	}
	return nil
}
