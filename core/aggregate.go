package core

import (
	"cmp"
	"slices"

	"github.com/AmirTlinov/compas/schema"
)

// AggregationPolicy decides which findings block a gate.
type AggregationPolicy struct {
	BlockAt schema.Severity // findings at or above this severity force fail
}

// DefaultPolicy blocks on high and critical findings.
var DefaultPolicy = AggregationPolicy{BlockAt: schema.SeverityHigh}

// Blocks reports whether f is blocking under the policy.
func (p AggregationPolicy) Blocks(f schema.Finding) bool {
	blockAt := p.BlockAt
	if !blockAt.Valid() {
		blockAt = schema.SeverityHigh
	}
	return f.Severity.AtLeast(blockAt)
}

// Aggregate folds scanner results into one status and one ordered finding list
// using DefaultPolicy.
func Aggregate(results []schema.ScannerResult) (schema.Status, []schema.Finding) {
	return AggregateWithPolicy(results, DefaultPolicy)
}

// AggregateWithPolicy folds scanner results with precedence error > fail > pass.
// Any blocking finding forces at least fail. The inputs are left untouched.
func AggregateWithPolicy(results []schema.ScannerResult, policy AggregationPolicy) (schema.Status, []schema.Finding) {
	status := schema.StatusPass
	total := 0
	for _, r := range results {
		total += len(r.Findings)
	}
	findings := make([]schema.Finding, 0, total)

	for _, r := range results {
		switch r.Status {
		case schema.StatusPass, schema.StatusFail, schema.StatusError:
			status = status.Worse(r.Status)
		default:
			// Unknown scanner states fail closed.
			status = status.Worse(schema.StatusError)
		}
		for _, f := range r.Findings {
			if policy.Blocks(f) {
				status = status.Worse(schema.StatusFail)
			}
			findings = append(findings, f)
		}
	}

	SortFindings(findings)
	return status, findings
}

// SortFindings orders findings by severity (most severe first), then path, line
// and code ascending. Absent path or line sort first. Remaining fields break
// ties so the order is total.
func SortFindings(findings []schema.Finding) {
	slices.SortFunc(findings, compareFindings)
}

func compareFindings(a, b schema.Finding) int {
	return cmp.Or(
		cmp.Compare(b.Severity.Rank(), a.Severity.Rank()),
		compareOptional(a.Path, b.Path),
		compareOptional(a.Line, b.Line),
		cmp.Compare(a.Code, b.Code),
		cmp.Compare(a.Category, b.Category),
		cmp.Compare(a.Message, b.Message),
		cmp.Compare(a.EvidenceRef, b.EvidenceRef),
	)
}

func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

// CountWarnings returns the number of low-severity findings.
func CountWarnings(findings []schema.Finding) int {
	n := 0
	for _, f := range findings {
		if f.Severity == schema.SeverityLow {
			n++
		}
	}
	return n
}
