// Package parquet exports compas run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/AmirTlinov/compas/schema"
	"github.com/parquet-go/parquet-go"
)

// GateRun is one recorded gate run.
// This struct maps to the compas_gate_runs database table.
type GateRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Kind is either adapter or budget
	Kind string `parquet:"run_kind,snappy,dict"`

	PluginID  string `parquet:"plugin_id,snappy,dict"`
	AdapterID string `parquet:"adapter_id,snappy,dict"`

	// Status is the aggregated gate status (pass, fail or error)
	Status string `parquet:"status,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	DurationMs    int64 `parquet:"run_duration_ms,snappy"`
	FindingsTotal int32 `parquet:"findings_total,snappy"`
	WarningsTotal int32 `parquet:"warnings_total,snappy"`

	// CommitSHA is the revision the run was bound to (nullable)
	CommitSHA *string `parquet:"commit_sha,optional,snappy"`

	// ReportHash is the evidence digest of the sealed result (nullable, adapter runs only)
	ReportHash *string `parquet:"report_hash,optional,snappy"`
}

// GateFinding is one finding of a recorded run.
// This struct maps to the compas_gate_findings database table.
type GateFinding struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// Seq is the 1-based position of the finding in the run's ordered list
	Seq int32 `parquet:"seq,snappy"`

	Code     string `parquet:"code,snappy,dict"`
	Severity string `parquet:"severity,snappy,dict"`
	Category string `parquet:"category,snappy,dict"`
	Message  string `parquet:"message,snappy"`

	// Path and Line locate the finding when the tool reported a location (nullable)
	Path *string `parquet:"file_path,optional,snappy"`
	Line *int32  `parquet:"line_no,optional,snappy"`

	EvidenceRef string `parquet:"evidence_ref,snappy,dict"`
}

// WriteGateRunsParquet writes runs to a Parquet file.
func WriteGateRunsParquet(data []GateRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteGateFindingsParquet writes findings to a Parquet file.
func WriteGateFindingsParquet(data []GateFinding, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertGateRunRecords converts store records for Parquet export.
func ConvertGateRunRecords(records []schema.GateRunRecord) []GateRun {
	result := make([]GateRun, len(records))
	for i, record := range records {
		result[i] = GateRun{
			RunID:         record.RunID,
			Kind:          string(record.Kind),
			PluginID:      record.PluginID,
			AdapterID:     record.AdapterID,
			Status:        string(record.Status),
			StartTime:     record.StartTime,
			DurationMs:    record.DurationMs,
			FindingsTotal: record.FindingsTotal,
			WarningsTotal: record.WarningsTotal,
			CommitSHA:     record.CommitSHA,
			ReportHash:    record.ReportHash,
		}
	}
	return result
}

// ConvertGateFindingRecords converts store records for Parquet export.
func ConvertGateFindingRecords(records []schema.GateFindingRecord) []GateFinding {
	result := make([]GateFinding, len(records))
	for i, record := range records {
		result[i] = GateFinding{
			RunID:       record.RunID,
			Seq:         record.Seq,
			Code:        record.Code,
			Severity:    string(record.Severity),
			Category:    record.Category,
			Message:     record.Message,
			Path:        record.Path,
			Line:        record.Line,
			EvidenceRef: record.EvidenceRef,
		}
	}
	return result
}
