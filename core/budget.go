package core

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/AmirTlinov/compas/schema"
)

// Finding codes produced by the metric regression comparator.
const (
	CodeMetricRegression = "perf.metric_regression"
	CodeMissingMetric    = "perf.missing_metric"
	CodeExtraMetric      = "perf.extra_metric"
	CodeSchemaError      = "perf.schema_error"
)

// absTolerance absorbs float noise in the absolute budget check.
const absTolerance = 1e-12

// Comparison error strings.
const (
	errMissingCoverage = "current baseline metric coverage mismatch"
	errExtraMetrics    = "current payload has unmapped metrics"
)

// Compare checks every current metric against its baseline budget.
// Missing or extra metrics make the report error; any regression beyond budget
// makes it fail. Regressions within budget stay visible as pass rows.
func Compare(baseline map[string]schema.MetricBudget, current map[string]schema.MetricSample) schema.ComparisonReport {
	report := schema.ComparisonReport{
		Status:   schema.StatusPass,
		Findings: []schema.BudgetFinding{},
		Metrics:  make(map[string]schema.MetricComparison, len(baseline)+len(current)),
	}

	var missing, extra bool
	for _, name := range slices.Sorted(maps.Keys(baseline)) {
		budget := baseline[name]
		sample, ok := current[name]
		if !ok {
			missing = true
			report.Metrics[name] = schema.MetricComparison{
				Status:        schema.MetricMissingCurrent,
				Baseline:      schema.Float64Ptr(budget.Value),
				HigherIsWorse: schema.BoolPtr(budget.HigherIsWorse),
				Severity:      budget.Severity,
			}
			report.Findings = append(report.Findings, schema.BudgetFinding{
				Code:     CodeMissingMetric,
				Severity: budget.Severity,
				Metric:   name,
				Message:  fmt.Sprintf("current payload missing baseline metric '%s'", name),
			})
			continue
		}

		row, finding := compareMetric(name, budget, sample)
		report.Metrics[name] = row
		if finding != nil {
			report.Findings = append(report.Findings, *finding)
			report.Summary.Failures++
		}
	}

	for _, name := range slices.Sorted(maps.Keys(current)) {
		if _, ok := baseline[name]; ok {
			continue
		}
		extra = true
		report.Metrics[name] = schema.MetricComparison{
			Status:  schema.MetricExtraCurrent,
			Current: schema.Float64Ptr(current[name].Value),
		}
		report.Findings = append(report.Findings, schema.BudgetFinding{
			Code:     CodeExtraMetric,
			Severity: schema.SeverityMedium,
			Metric:   name,
			Message:  fmt.Sprintf("current payload includes unmapped metric '%s'", name),
		})
	}

	switch {
	case missing && extra:
		report.Error = errMissingCoverage + "; " + errExtraMetrics
	case missing:
		report.Error = errMissingCoverage
	case extra:
		report.Error = errExtraMetrics
	}

	switch {
	case missing || extra:
		report.Status = schema.StatusError
		report.Summary.Errors = 1
	case report.Summary.Failures > 0:
		report.Status = schema.StatusFail
	}
	report.Summary.MetricsTotal = len(report.Metrics)
	report.Summary.FindingsTotal = len(report.Findings)
	return report
}

// compareMetric evaluates one matched metric. The finding is nil unless the
// regression exceeds either budget.
func compareMetric(name string, budget schema.MetricBudget, sample schema.MetricSample) (schema.MetricComparison, *schema.BudgetFinding) {
	delta := sample.Value - budget.Value
	regressionDelta := -delta
	if budget.HigherIsWorse {
		regressionDelta = delta
	}
	regression := regressionDelta > 0

	var deltaPct schema.Percent
	switch {
	case regression && budget.Value != 0:
		deltaPct = schema.PercentOf(regressionDelta / math.Abs(budget.Value) * 100)
	case regression && budget.MaxDeltaPct > 0:
		deltaPct = schema.PercentOf(math.Inf(1))
	}

	failed := regression &&
		(regressionDelta > budget.MaxDeltaAbs+absTolerance ||
			(deltaPct.Valid && deltaPct.Value > budget.MaxDeltaPct))

	row := schema.MetricComparison{
		Status:        schema.MetricPass,
		Baseline:      schema.Float64Ptr(budget.Value),
		Current:       schema.Float64Ptr(sample.Value),
		DeltaAbs:      schema.Float64Ptr(regressionDelta),
		DeltaPct:      deltaPct,
		HigherIsWorse: schema.BoolPtr(budget.HigherIsWorse),
		Severity:      budget.Severity,
	}
	if !failed {
		return row, nil
	}

	row.Status = schema.MetricFail
	return row, &schema.BudgetFinding{
		Code:     CodeMetricRegression,
		Severity: budget.Severity,
		Metric:   name,
		Message: fmt.Sprintf(
			"metric %s regressed: baseline=%s, current=%s, delta=%s, delta_pct=%s, required max_delta_pct=%s; max_delta_abs=%s",
			name, formatG(budget.Value), formatG(sample.Value), formatG(delta), deltaPctText(deltaPct),
			formatG(budget.MaxDeltaPct), formatG(budget.MaxDeltaAbs),
		),
		Delta:    schema.Float64Ptr(regressionDelta),
		DeltaPct: deltaPct,
		LimitPct: schema.Float64Ptr(budget.MaxDeltaPct),
		LimitAbs: schema.Float64Ptr(budget.MaxDeltaAbs),
	}
}

// SchemaErrorReport is the report for budget documents that failed validation.
// It never carries partial metric results.
func SchemaErrorReport(err error) schema.ComparisonReport {
	return schema.ComparisonReport{
		Status: schema.StatusError,
		Summary: schema.ComparisonSummary{
			MetricsTotal:  0,
			FindingsTotal: 1,
			Failures:      0,
			Errors:        1,
		},
		Error: err.Error(),
		Findings: []schema.BudgetFinding{{
			Code:     CodeSchemaError,
			Severity: schema.SeverityCritical,
			Message:  err.Error(),
		}},
		Metrics: map[string]schema.MetricComparison{},
	}
}

func formatG(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

func deltaPctText(p schema.Percent) string {
	if !p.Valid {
		return "n/a"
	}
	return p.String()
}
