// Package schema has the canonical models and vocabularies shared by every part of compas.
package schema

// Finding is one canonical issue reported by a scanner or by the adapter itself.
// Path and Line are optional; an absent value is nil rather than empty.
type Finding struct {
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Path        *string  `json:"path,omitempty"`
	Line        *int     `json:"line,omitempty"`
	EvidenceRef string   `json:"evidence_ref"`
}

// RawFinding is a tool-native issue before its severity has been mapped.
// Item identifies the issue in diagnostics (rule id, fingerprint, ...).
type RawFinding struct {
	Code        string
	Severity    string
	Category    string
	Message     string
	Path        string
	Line        int
	EvidenceRef string
	Item        string
}

// ScannerResult is the outcome of running one external tool.
type ScannerResult struct {
	Scanner    string    `json:"scanner"`
	OK         bool      `json:"ok"`
	Status     Status    `json:"status"`
	Findings   []Finding `json:"findings"`
	DurationMs int64     `json:"duration_ms"`
	ExitCode   *int      `json:"exit_code"`
	Command    []string  `json:"command"`
	Version    string    `json:"version"`
}

// ScannerState is the per-tool summary carried inside an AdapterResult.
type ScannerState struct {
	Name       string   `json:"name"`
	Command    []string `json:"command"`
	ExitCode   *int     `json:"exit_code"`
	DurationMs int64    `json:"duration_ms"`
	Version    string   `json:"version"`
	OK         bool     `json:"ok"`
	Status     Status   `json:"status"`
}

// AdapterMetrics are the counters of an AdapterResult.
type AdapterMetrics struct {
	DurationMs    int64 `json:"duration_ms"`
	FindingsTotal int   `json:"findings_total"`
	WarningsTotal int   `json:"warnings_total"`
}

// Evidence binds a result document to its content and source revision.
type Evidence struct {
	StdoutHash string `json:"stdout_hash"`
	StderrHash string `json:"stderr_hash"`
	ReportHash string `json:"report_hash"`
	ReportPath string `json:"report_path"`
	CommitSHA  string `json:"commit_sha"`
}

// AdapterResult is the top-level document an adapter emits.
type AdapterResult struct {
	Status    Status         `json:"status"`
	PluginID  string         `json:"plugin_id"`
	AdapterID string         `json:"adapter_id"`
	Scanners  []ScannerState `json:"scanners"`
	Findings  []Finding      `json:"findings"`
	Metrics   AdapterMetrics `json:"metrics"`
	Evidence  Evidence       `json:"evidence"`
}

// AdapterEnvelope wraps an AdapterResult on the wire.
type AdapterEnvelope struct {
	AdapterResult AdapterResult `json:"adapter_result"`
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to n, or nil when n is not positive.
func IntPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

// SeverityMapping is one row of a tool's severity table.
type SeverityMapping struct {
	Source    string   `json:"source"`
	Raw       string   `json:"raw"`
	Canonical Severity `json:"canonical"`
}
