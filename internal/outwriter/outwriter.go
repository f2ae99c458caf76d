// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
)

// WriteAdapterResult prints a sealed adapter result using the configured output format.
func WriteAdapterResult(result *schema.AdapterResult, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteAdapterResultTo(w, result, cfg, duration)
	}, "Wrote adapter result")
}

// WriteComparisonReport prints a budget comparison using the configured output format.
func WriteComparisonReport(report *schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteComparisonReportTo(w, report, cfg, duration)
	}, "Wrote comparison report")
}

// WriteSeverityMappings prints severity table rows using the configured output format.
func WriteSeverityMappings(rows []schema.SeverityMapping, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteSeverityMappingsTo(w, rows, cfg)
	}, "Wrote severity tables")
}
