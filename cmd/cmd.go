// Package cmd defines the command-line interface for compas.
package cmd

import (
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(severityCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	severityCmd.AddCommand(severityListCmd)
	severityCmd.AddCommand(severityMapCmd)

	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("plugin-id", contract.DefaultPluginID, "Plugin identifier reported in results and finding codes")
	rootCmd.PersistentFlags().String("adapter-id", contract.DefaultAdapterID, "Adapter identifier reported in results")
	rootCmd.PersistentFlags().String("block-at", string(contract.DefaultBlockSeverity), "Lowest severity that fails the gate: low or medium or high or critical")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("report-path", "", "Report location recorded in evidence (defaults to --output-file)")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of evaluateCmd to Viper
	evaluateCmd.Flags().String("input", "", "Path to a JSON list of scanner results")
	if err := viper.BindPFlags(evaluateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding evaluate flags", err)
	}

	// Bind all flags of budgetCmd to Viper
	budgetCmd.Flags().String("baseline", "", "Path to the baseline document (json, yaml or toml)")
	budgetCmd.Flags().String("current", "", "Path to the current-metrics document (json, yaml or toml)")
	if err := viper.BindPFlags(budgetCmd.Flags()); err != nil {
		contract.LogFatal("Error binding budget flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
