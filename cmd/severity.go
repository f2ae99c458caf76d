package cmd

import (
	"fmt"
	"os"

	"github.com/AmirTlinov/compas/core"
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/outwriter"
	"github.com/AmirTlinov/compas/schema"
	"github.com/spf13/cobra"
)

// severitySetup validates output settings without a repository argument.
func severitySetup(cmd *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, cmd, nil)
}

// severityCmd groups the severity table commands.
var severityCmd = &cobra.Command{
	Use:   "severity",
	Short: "Inspect the per-tool severity tables",
	Long: `Every supported tool has its own severity vocabulary. Compas maps each one onto
low, medium, high and critical with a fixed, case-insensitive table.

Examples:
  compas severity list
  compas severity list gitleaks trufflehog --output csv
  compas severity map semgrep WARNING`,
}

var severityListCmd = &cobra.Command{
	Use:     "list [source...]",
	Short:   "Print the severity tables of all or some tools",
	PreRunE: severitySetup,
	Run: func(_ *cobra.Command, args []string) {
		rows, err := core.SeverityMappings(args...)
		if err != nil {
			contract.LogFatal("Failed to list severity tables", err)
		}
		if err := outwriter.WriteSeverityMappings(rows, cfg); err != nil {
			contract.LogFatal("Failed to write severity tables", err)
		}
	},
}

var severityMapCmd = &cobra.Command{
	Use:     "map <source> <severity>",
	Short:   "Map one tool-native severity onto the canonical scale",
	Args:    cobra.ExactArgs(2),
	PreRunE: severitySetup,
	Run: func(_ *cobra.Command, args []string) {
		sev, err := core.NormalizeSeverity(args[0], args[1])
		if err != nil {
			f := core.UnknownSeverityFinding(cfg.PluginID, args[0], args[1])
			_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", f.Code, f.Message)
			exitCode = schema.ExitError
			return
		}
		fmt.Println(sev)
	},
}
