package cmd

import (
	"fmt"
	"os"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/history"
	"github.com/AmirTlinov/compas/internal/logging"
	"github.com/AmirTlinov/compas/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackend reads and validates the history backend settings.
func historyBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}
	if err := logging.InitLogger(viper.GetBool("debug")); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := history.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}

	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = history.GetDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on run history management.
//
// Note: history subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by gate commands. This avoids repository resolution
// and tool validation for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the recorded gate run history",
	Long: `Manage the history of gate runs.

When --history-backend is set, every scan, evaluate and budget run is recorded:
- Run metadata (kind, plugin, adapter, status, timing, commit, report hash)
- Every finding of the run in result order

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show history statistics
  export  - Export runs and findings to Parquet
  clear   - Remove all recorded history
  migrate - Run database schema migrations

Examples:
  compas history status --history-backend sqlite
  compas history export --history-backend sqlite --output-file gate-history`,
}

var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := history.Manager.GetHistoryStore()
		if store == nil {
			history.PrintHistoryStatus(os.Stdout, schema.HistoryStatus{Backend: string(schema.NoneBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		history.PrintHistoryStatus(os.Stdout, status)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded gate runs and findings",
	Long: `Delete all recorded gate runs and their findings.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  compas history export --history-backend sqlite --output-file backup
  compas history clear --history-backend sqlite`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite file before removing it.
		history.CloseStores()
		if err := history.Clear(cfg.HistoryBackend, history.GetDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs and findings to Parquet",
	Long: `Export all recorded history to two Parquet files:
  <output-file>.gate_runs.parquet
  <output-file>.gate_findings.parquet

Requires: --output-file parameter

Examples:
  compas history export --history-backend sqlite --output-file gate-history
  duckdb -c "SELECT status, count(*) FROM read_parquet('gate-history.gate_runs.parquet') GROUP BY 1"`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.ExecuteExport(os.Stdout, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.
MySQL connection strings need multiStatements=true.

Examples:
  compas history migrate --history-backend sqlite
  compas history migrate --history-backend postgresql --history-db-connect "host=db dbname=compas" --target-version 1`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		outcome, err := history.Migrate(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(outcome)
	},
}
