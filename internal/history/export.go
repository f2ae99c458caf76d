package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/parquet"
)

// ExecuteExport writes the recorded run history to Parquet files next to outputFile.
func ExecuteExport(w io.Writer, outputFile string) error {
	return exportHistory(w, Manager.GetHistoryStore(), outputFile)
}

func exportHistory(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is disabled; set --history-backend to export")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total gate runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total findings: %d\n", status.TotalFindings)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve gate runs: %w", err)
	}
	findings, err := store.GetAllFindings()
	if err != nil {
		return fmt.Errorf("failed to retrieve findings: %w", err)
	}

	runsFile := outputFile + ".gate_runs.parquet"
	parquetRuns := parquet.ConvertGateRunRecords(runs)
	if err := parquet.WriteGateRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write gate runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d gate runs to: %s\n", len(parquetRuns), runsFile)

	findingsFile := outputFile + ".gate_findings.parquet"
	parquetFindings := parquet.ConvertGateFindingRecords(findings)
	if err := parquet.WriteGateFindingsParquet(parquetFindings, findingsFile); err != nil {
		return fmt.Errorf("failed to write findings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d findings to: %s\n", len(parquetFindings), findingsFile)

	return nil
}
