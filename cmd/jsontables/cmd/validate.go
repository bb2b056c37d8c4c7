package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/jsontables/internal/config"
	"github.com/dbsmedya/jsontables/internal/database"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and, for the mysql format,
verifies that the destination database is reachable.

Checks performed:
  - Configuration syntax and required fields
  - Output format, naming mode and size limits
  - Database connectivity (mysql format only)

Example:
  jsontables validate --config jsontables.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// pingDatabase is replaced in tests.
var pingDatabase = func(ctx context.Context, cfg *config.DatabaseConfig) error {
	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return err
	}
	defer dbManager.Close()
	return dbManager.Ping(ctx)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := GetConfigFile()

	printHeader(out, "Configuration Validation")
	if configFile == "" {
		fmt.Fprintln(out, "Config file: (defaults)")
	} else {
		fmt.Fprintf(out, "Config file: %s\n", configFile)
	}
	fmt.Fprintln(out)

	cfg, err := loadConfig(config.Overrides{})
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				printFailure(out, "%s", v.Error())
			}
		} else {
			printFailure(out, "%v", err)
		}
		return err
	}
	printSuccess(out, "Configuration is valid")
	printConfigSummary(out, cfg)

	if cfg.Output.Format != config.FormatMySQL {
		return nil
	}

	fmt.Fprintln(out)
	addr := fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	if err := pingDatabase(commandContext(cmd), &cfg.Database); err != nil {
		printFailure(out, "Database %s unreachable: %v", addr, err)
		return fmt.Errorf("database connection failed: %w", err)
	}
	printSuccess(out, "Database %s reachable", addr)
	return nil
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	printSection(w, "Settings")
	printColumns(w, [][]string{
		{"Format:", cfg.Output.Format},
		{"Output Dir:", cfg.Output.Dir},
		{"Base Name:", cfg.Output.BaseName},
		{"Naming:", cfg.Conversion.NamingMode},
		{"Name Length:", fmt.Sprintf("%d", cfg.NameLength())},
		{"Max Input:", orUnlimited(cfg.Input.MaxSize)},
		{"Dates:", fmt.Sprintf("%t (min ratio %.2f)", cfg.Dates.Enabled, cfg.Dates.MinRatio)},
	}, 1)
}

func orUnlimited(s string) string {
	if s == "" {
		return "unlimited"
	}
	return s
}
