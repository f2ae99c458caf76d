package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteSeverityMappingsTo outputs severity table rows, dispatching based on the output format configured.
func WriteSeverityMappingsTo(w io.Writer, rows []schema.SeverityMapping, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if rows == nil {
			rows = []schema.SeverityMapping{}
		}
		if err := writeJSON(w, rows); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		err := writeCSVWithHeader(w, []string{"source", "raw", "canonical", "rank"}, func(cw *csv.Writer) error {
			for _, r := range rows {
				if err := cw.Write([]string{r.Source, r.Raw, string(r.Canonical), fmt.Sprint(r.Canonical.Rank())}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		table := tablewriter.NewWriter(w)
		defer func() { _ = table.Close() }()

		table.Header([]string{"Source", "Tool Severity", "Canonical"})
		var data [][]string
		for _, r := range rows {
			data = append(data, []string{r.Source, r.Raw, severityLabel(r.Canonical, cfg.UseColors)})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	}
	return nil
}
