package schema

// Custom string types for type safety.
type (
	// Severity is one of the canonical severities.
	Severity string

	// Status is the verdict of a scanner, an adapter or a comparison.
	Status string

	// MetricStatus is the per-metric outcome of a budget comparison.
	MetricStatus string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// RunKind distinguishes the kinds of gate runs kept in history.
	RunKind string

	// ParserName selects how a tool's output is turned into raw findings.
	ParserName string
)

// All canonical severities, lowest first.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// All statuses supported.
const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// All per-metric statuses supported.
const (
	MetricPass           MetricStatus = "pass"
	MetricFail           MetricStatus = "fail"
	MetricMissingCurrent MetricStatus = "missing_current"
	MetricExtraCurrent   MetricStatus = "extra_current"
)

// Finding categories used by the adapter runtime.
const (
	CategoryAdapter        = "adapter"
	CategoryInfrastructure = "infrastructure"
	CategorySecurity       = "security"
	CategorySecrets        = "secrets"
	CategoryQuality        = "quality"
	CategoryPerformance    = "performance"
)

// Version sentinels for ScannerResult.Version.
const (
	VersionUnknown = "unknown"
	VersionMissing = "missing"
)

// CommitUnknown is recorded when the source revision cannot be resolved.
const CommitUnknown = "unknown"

// Process exit codes of the gate.
const (
	ExitPass  = 0
	ExitFail  = 1
	ExitError = 2
)

// Exit codes reported for tools that could not run to completion.
const (
	ExitTimeout  = 124
	ExitNotFound = 127
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All run kinds recorded in history.
const (
	AdapterRun RunKind = "adapter"
	BudgetRun  RunKind = "budget"
)

// All tool output parsers supported.
const (
	SemgrepParser    ParserName = "semgrep"
	GitleaksParser   ParserName = "gitleaks"
	TrufflehogParser ParserName = "trufflehog"
	ESLintParser     ParserName = "eslint"
	RuffParser       ParserName = "ruff"
	ClippyParser     ParserName = "clippy"
	GosecParser      ParserName = "gosec"
	FindingsParser   ParserName = "findings" // canonical JSON findings
)

// AllSeverities lists the canonical severities, lowest first.
var AllSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidParsers lists all valid tool output parsers.
var ValidParsers = map[ParserName]struct{}{
	SemgrepParser:    {},
	GitleaksParser:   {},
	TrufflehogParser: {},
	ESLintParser:     {},
	RuffParser:       {},
	ClippyParser:     {},
	GosecParser:      {},
	FindingsParser:   {},
}
