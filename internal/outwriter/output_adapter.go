package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteAdapterResultTo outputs an adapter result, dispatching based on the output format configured.
// JSON output is the wire envelope {"adapter_result": ...}.
func WriteAdapterResultTo(w io.Writer, result *schema.AdapterResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, schema.AdapterEnvelope{AdapterResult: *result}); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVFindings(w, result.Findings); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeAdapterTable(w, result, cfg, duration)
	}
	return nil
}

// writeAdapterTable writes the scanner states, the findings and a summary.
func writeAdapterTable(w io.Writer, result *schema.AdapterResult, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "%s %s (adapter %s)\n",
		statusLabel(string(result.Status), cfg.UseColors), result.PluginID, result.AdapterID); err != nil {
		return err
	}

	if len(result.Scanners) > 0 {
		if err := writeScannerTable(w, result.Scanners, cfg); err != nil {
			return err
		}
	}

	if len(result.Findings) == 0 {
		if _, err := fmt.Fprintln(w, "No findings"); err != nil {
			return err
		}
	} else if err := writeFindingsTable(w, result.Findings, cfg); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Findings: %d, Warnings: %d\n", result.Metrics.FindingsTotal, result.Metrics.WarningsTotal); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Commit: %s, Report hash: %s\n", result.Evidence.CommitSHA, result.Evidence.ReportHash); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Gate completed in %v\n", duration)
	return err
}

func writeScannerTable(w io.Writer, scanners []schema.ScannerState, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Scanner", "Status", "Exit", "Duration", "Version", "Command"})

	var data [][]string
	for _, s := range scanners {
		data = append(data, []string{
			s.Name,
			statusLabel(string(s.Status), cfg.UseColors),
			optInt(s.ExitCode),
			(time.Duration(s.DurationMs) * time.Millisecond).String(),
			s.Version,
			contract.TruncatePath(strings.Join(s.Command, " "), GetMaxTablePathWidth(cfg)),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeFindingsTable(w io.Writer, findings []schema.Finding, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"#", "Severity", "Code", "Category", "Path", "Line", "Message"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	messageWidth := GetMaxMessageWidth(cfg)
	var data [][]string
	for i, f := range findings {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			severityLabel(f.Severity, cfg.UseColors),
			f.Code,
			f.Category,
			contract.TruncatePath(optString(f.Path), pathWidth),
			optInt(f.Line),
			contract.Excerpt(strings.ReplaceAll(f.Message, "\n", " "), messageWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeCSVFindings writes one row per finding in result order.
func writeCSVFindings(w io.Writer, findings []schema.Finding) error {
	header := []string{"rank", "severity", "code", "category", "path", "line", "message", "evidence_ref"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, f := range findings {
			row := []string{
				strconv.Itoa(i + 1),
				string(f.Severity),
				f.Code,
				f.Category,
				optString(f.Path),
				optInt(f.Line),
				f.Message,
				f.EvidenceRef,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
