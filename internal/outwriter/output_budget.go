package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteComparisonReportTo outputs a budget comparison, dispatching based on the output format configured.
func WriteComparisonReportTo(w io.Writer, report *schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, report); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVMetrics(w, report, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeComparisonTable(w, report, cfg, fmtFloat, duration)
	}
	return nil
}

// writeComparisonTable writes one row per metric followed by the findings and a summary.
func writeComparisonTable(w io.Writer, report *schema.ComparisonReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "%s budget comparison\n", statusLabel(string(report.Status), cfg.UseColors)); err != nil {
		return err
	}
	if report.Error != "" {
		if _, err := fmt.Fprintf(w, "Error: %s\n", report.Error); err != nil {
			return err
		}
	}

	if len(report.Metrics) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Metric", "Baseline", "Current", "Delta", "Delta %", "Severity", "Status"})
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})

		var data [][]string
		for _, name := range slices.Sorted(maps.Keys(report.Metrics)) {
			m := report.Metrics[name]
			sev := ""
			if m.Severity != "" {
				sev = severityLabel(m.Severity, cfg.UseColors)
			}
			data = append(data, []string{
				name,
				optFloat(m.Baseline, fmtFloat),
				optFloat(m.Current, fmtFloat),
				formatDelta(m.DeltaAbs, cfg.Precision),
				formatPercent(m.DeltaPct, fmtFloat),
				sev,
				statusLabel(string(m.Status), cfg.UseColors),
			})
		}
		if err := table.Bulk(data); err != nil {
			_ = table.Close()
			return err
		}
		if err := table.Render(); err != nil {
			_ = table.Close()
			return err
		}
		_ = table.Close()
	}

	for _, f := range report.Findings {
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", severityLabel(f.Severity, cfg.UseColors), f.Code, f.Message); err != nil {
			return err
		}
	}

	s := report.Summary
	if _, err := fmt.Fprintf(w, "Metrics: %d, Findings: %d, Failures: %d, Errors: %d\n",
		s.MetricsTotal, s.FindingsTotal, s.Failures, s.Errors); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Comparison completed in %v\n", duration)
	return err
}

// formatDelta explicitly adds the + sign to positive deltas.
func formatDelta(v *float64, precision int) string {
	if v == nil {
		return ""
	}
	if *v > 0 {
		return fmt.Sprintf("+%.*f", precision, *v)
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

func formatPercent(p schema.Percent, fmtFloat func(float64) string) string {
	switch {
	case !p.Valid:
		return ""
	case p.IsInf():
		return "+Inf"
	case p.Value > 0:
		return "+" + fmtFloat(p.Value)
	default:
		return fmtFloat(p.Value)
	}
}

// writeCSVMetrics writes one row per metric, sorted by name.
func writeCSVMetrics(w io.Writer, report *schema.ComparisonReport, fmtFloat func(float64) string) error {
	header := []string{"metric", "status", "baseline", "current", "delta_abs", "delta_pct", "higher_is_worse", "severity"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, name := range slices.Sorted(maps.Keys(report.Metrics)) {
			m := report.Metrics[name]
			higherIsWorse := ""
			if m.HigherIsWorse != nil {
				higherIsWorse = strconv.FormatBool(*m.HigherIsWorse)
			}
			row := []string{
				name,
				string(m.Status),
				optFloat(m.Baseline, fmtFloat),
				optFloat(m.Current, fmtFloat),
				optFloat(m.DeltaAbs, fmtFloat),
				formatPercent(m.DeltaPct, fmtFloat),
				higherIsWorse,
				string(m.Severity),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
