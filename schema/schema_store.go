package schema

import "time"

// GateRunRecord represents a row from the compas_gate_runs table.
type GateRunRecord struct {
	RunID         int64
	Kind          RunKind
	PluginID      string
	AdapterID     string
	Status        Status
	StartTime     time.Time
	DurationMs    int64
	FindingsTotal int32
	WarningsTotal int32
	CommitSHA     *string
	ReportHash    *string
}

// GateFindingRecord represents a row from the compas_gate_findings table.
type GateFindingRecord struct {
	RunID       int64
	Seq         int32
	Code        string
	Severity    Severity
	Category    string
	Message     string
	Path        *string
	Line        *int32
	EvidenceRef string
}
