package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
)

// AdapterResultBuilder builds a sealed AdapterResult using a builder pattern.
type AdapterResultBuilder struct {
	ctx      context.Context
	cfg      *contract.Config
	runner   contract.ToolRunner
	client   contract.GitClient
	policy   AggregationPolicy
	start    time.Time
	scanners []schema.ScannerResult
	status   schema.Status
	findings []schema.Finding
	result   *schema.AdapterResult
	stderr   string
}

// NewAdapterResultBuilder creates a new builder for adapter results.
func NewAdapterResultBuilder(ctx context.Context, cfg *contract.Config, runner contract.ToolRunner, client contract.GitClient) *AdapterResultBuilder {
	return &AdapterResultBuilder{
		ctx:    ctx,
		cfg:    cfg,
		runner: runner,
		client: client,
		policy: AggregationPolicy{BlockAt: cfg.BlockAt},
		start:  time.Now(),
	}
}

// ValidatePrerequisites checks that there is something to scan.
func (b *AdapterResultBuilder) ValidatePrerequisites() (*AdapterResultBuilder, error) {
	if len(b.cfg.Tools) == 0 {
		return nil, fmt.Errorf("no tools configured. Add a tools list to .compas.yaml or use 'compas evaluate' with pre-collected results")
	}
	if b.runner == nil {
		return nil, fmt.Errorf("no tool runner available")
	}
	return b, nil
}

// RunScanners executes every configured tool in order.
func (b *AdapterResultBuilder) RunScanners() *AdapterResultBuilder {
	b.scanners = make([]schema.ScannerResult, 0, len(b.cfg.Tools))
	for _, tool := range b.cfg.Tools {
		b.scanners = append(b.scanners, ScanTool(b.ctx, b.runner, b.cfg.PluginID, b.cfg.RepoPath, tool, b.policy))
	}
	return b
}

// WithScannerResults uses results collected elsewhere instead of running tools.
func (b *AdapterResultBuilder) WithScannerResults(results []schema.ScannerResult) *AdapterResultBuilder {
	b.scanners = SanitizeScannerResults(b.cfg.PluginID, results)
	return b
}

// Aggregate folds the scanner results into the gate status.
func (b *AdapterResultBuilder) Aggregate() *AdapterResultBuilder {
	b.status, b.findings = AggregateWithPolicy(b.scanners, b.policy)
	return b
}

// BuildResult constructs the unsealed AdapterResult.
func (b *AdapterResultBuilder) BuildResult() *AdapterResultBuilder {
	b.result = &schema.AdapterResult{
		Status:    b.status,
		PluginID:  b.cfg.PluginID,
		AdapterID: b.cfg.AdapterID,
		Scanners:  schema.StatesOf(b.scanners),
		Findings:  b.findings,
		Metrics: schema.AdapterMetrics{
			DurationMs:    time.Since(b.start).Milliseconds(),
			FindingsTotal: len(b.findings),
			WarningsTotal: CountWarnings(b.findings),
		},
		Evidence: schema.Evidence{ReportPath: b.cfg.ReportPath},
	}
	return b
}

// Seal computes the evidence block.
func (b *AdapterResultBuilder) Seal() (*AdapterResultBuilder, error) {
	if b.result == nil {
		return nil, fmt.Errorf("result must be built before sealing")
	}
	b.stderr = StderrSummary(*b.result)
	sealed, err := SealEvidence(*b.result, ResolveCommitSHA(b.ctx, b.client, b.cfg.RepoPath), b.stderr)
	if err != nil {
		return nil, err
	}
	b.result = &sealed
	return b, nil
}

// GetResult returns the built AdapterResult.
func (b *AdapterResultBuilder) GetResult() *schema.AdapterResult {
	return b.result
}

// StderrLine returns the summary line whose digest is stderr_hash.
func (b *AdapterResultBuilder) StderrLine() string {
	return b.stderr
}

// StartTime is when the builder was created.
func (b *AdapterResultBuilder) StartTime() time.Time {
	return b.start
}

// SanitizeScannerResults makes externally collected results safe to aggregate.
// A finding with a non-canonical severity becomes the unknown-severity finding;
// one that fails NewFinding becomes an invalid-finding one. A non-positive
// line is dropped. The input is not modified.
func SanitizeScannerResults(pluginID string, results []schema.ScannerResult) []schema.ScannerResult {
	out := make([]schema.ScannerResult, len(results))
	for i, r := range results {
		clean := r
		clean.Findings = make([]schema.Finding, 0, len(r.Findings))
		for _, f := range r.Findings {
			sev, ok := schema.ParseSeverity(string(f.Severity))
			if !ok {
				clean.Findings = append(clean.Findings, UnknownSeverityFinding(pluginID, r.Scanner, fmt.Sprintf("%s=%q", f.Code, f.Severity)))
				continue
			}
			valid, err := NewFinding(f.Code, sev, f.Category, f.Message, derefString(f.Path), max(derefInt(f.Line), 0), f.EvidenceRef)
			if err != nil {
				clean.Findings = append(clean.Findings, InvalidFindingResult(pluginID, r.Scanner, err))
				continue
			}
			clean.Findings = append(clean.Findings, valid)
		}
		clean.Command = slices.Clone(r.Command)
		if clean.Command == nil {
			clean.Command = []string{}
		}
		if clean.Version == "" {
			clean.Version = schema.VersionUnknown
		}
		out[i] = clean
	}
	return out
}

// InvalidFindingResult replaces a finding that failed validation.
func InvalidFindingResult(pluginID, scanner string, err error) schema.Finding {
	return schema.Finding{
		Code:        pluginID + ".input.invalid_finding",
		Severity:    schema.SeverityCritical,
		Category:    schema.CategoryAdapter,
		Message:     fmt.Sprintf("%s: %v", scanner, err),
		EvidenceRef: pluginID + ".adapter",
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
