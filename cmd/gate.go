package cmd

import (
	"github.com/AmirTlinov/compas/core"
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/spf13/cobra"
)

// runGate executes a gate command and keeps its exit code. Only failures that
// prevent a result document from being written are fatal.
func runGate(name string, fn core.ExecutorFunc) {
	status, err := fn(rootCtx, cfg, storeManager)
	if err != nil {
		contract.LogFatal(name+" failed", err)
	}
	exitCode = status.ExitCode()
}

// scanCmd runs the configured scanners.
var scanCmd = &cobra.Command{
	Use:   "scan [repo-path]",
	Short: "Run the configured scanners and emit one sealed adapter result",
	Long: `Run every tool listed under 'tools' in the config file against the repository,
normalize what each tool reports and aggregate it into one adapter result.

Exit codes: 0 pass, 1 fail (a finding at or above --block-at), 2 error
(a tool is missing, crashed, timed out or produced unreadable output).

A missing tool, a non-zero exit outside ok_exit_codes, a timeout or output
the parser cannot read never aborts the run; each becomes a finding.

Examples:
  # Scan the current repository with the tools from .compas.yaml
  compas scan

  # Emit the JSON document and fail only on critical findings
  compas scan ./service --output json --block-at critical

  # Keep the report and record the run
  compas scan --output json --output-file p13.json --history-backend sqlite`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runGate("Scan", core.ExecuteScan)
	},
}

// evaluateCmd aggregates results gathered elsewhere.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [repo-path]",
	Short: "Aggregate scanner results collected by another process",
	Long: `Read a JSON list of scanner results (bare or under a "scanners" key) and emit
the sealed adapter result for them.

Findings with a severity outside low, medium, high, critical are replaced by a
critical '<plugin>.severity.unknown' finding. An unreadable input produces a
'<plugin>.input.invalid_output' finding and status error.

Examples:
  compas evaluate --input scanners.json --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runGate("Evaluate", core.ExecuteEvaluate)
	},
}

// budgetCmd compares performance metrics against their budgets.
var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Compare current metrics against a performance baseline",
	Long: `Compare a current-metrics document against a baseline of per-metric budgets.

A metric fails when its regression exceeds max_delta_abs or max_delta_pct.
Metrics present on only one side are errors. A document that violates the
schema yields a single perf.schema_error finding and status error.

Documents may be JSON, YAML or TOML, chosen by file extension.

Examples:
  compas budget --baseline perf/baseline.json --current bench/current.json
  compas budget --baseline perf/baseline.yaml --current bench/current.toml --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runGate("Budget", core.ExecuteBudget)
	},
}
