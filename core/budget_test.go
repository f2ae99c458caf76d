package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/AmirTlinov/compas/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budget(value, maxPct, maxAbs float64, higherIsWorse bool, sev schema.Severity) schema.MetricBudget {
	return schema.MetricBudget{Value: value, MaxDeltaPct: maxPct, MaxDeltaAbs: maxAbs, HigherIsWorse: higherIsWorse, Severity: sev}
}

func TestCompare_RegressionBeyondAbsoluteBudget(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{"latency_ms": budget(100, 10, 5, true, schema.SeverityHigh)},
		map[string]schema.MetricSample{"latency_ms": {Value: 106}},
	)

	assert.Equal(t, schema.StatusFail, report.Status)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, CodeMetricRegression, f.Code)
	assert.Equal(t, schema.SeverityHigh, f.Severity)
	assert.Equal(t, "latency_ms", f.Metric)
	assert.InDelta(t, 6.0, *f.Delta, 1e-9)
	assert.InDelta(t, 6.0, f.DeltaPct.Value, 1e-9)
	assert.Contains(t, f.Message, "metric latency_ms regressed")
	assert.Contains(t, f.Message, "max_delta_abs=5")

	row := report.Metrics["latency_ms"]
	assert.Equal(t, schema.MetricFail, row.Status)
	assert.Equal(t, schema.ComparisonSummary{MetricsTotal: 1, FindingsTotal: 1, Failures: 1, Errors: 0}, report.Summary)
	assert.Empty(t, report.Error)
}

func TestCompare_ZeroBaseline(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{"errors": budget(0, 5, 10, true, schema.SeverityCritical)},
		map[string]schema.MetricSample{"errors": {Value: 1}},
	)

	assert.Equal(t, schema.StatusFail, report.Status)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, schema.SeverityCritical, report.Findings[0].Severity)
	assert.True(t, report.Findings[0].DeltaPct.IsInf())
	assert.Contains(t, report.Findings[0].Message, "delta_pct=+Inf")

	out, err := json.Marshal(report.Metrics["errors"])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"delta_pct":"+Inf"`)
}

func TestCompare_ZeroBaselineWithoutPercentBudget(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{"errors": budget(0, 0, 2, true, schema.SeverityHigh)},
		map[string]schema.MetricSample{"errors": {Value: 1}},
	)
	assert.Equal(t, schema.StatusPass, report.Status)
	assert.False(t, report.Metrics["errors"].DeltaPct.Valid)
}

func TestCompare_Coverage(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{
			"cpu":     budget(50, 10, 1, true, schema.SeverityMedium),
			"latency": budget(100, 10, 5, true, schema.SeverityHigh),
		},
		map[string]schema.MetricSample{
			"cpu":    {Value: 50},
			"memory": {Value: 512},
		},
	)

	assert.Equal(t, schema.StatusError, report.Status)
	assert.Equal(t, "current baseline metric coverage mismatch; current payload has unmapped metrics", report.Error)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, CodeMissingMetric, report.Findings[0].Code)
	assert.Equal(t, schema.SeverityHigh, report.Findings[0].Severity)
	assert.Equal(t, "latency", report.Findings[0].Metric)
	assert.Equal(t, CodeExtraMetric, report.Findings[1].Code)
	assert.Equal(t, schema.SeverityMedium, report.Findings[1].Severity)
	assert.Equal(t, "memory", report.Findings[1].Metric)

	assert.Equal(t, schema.MetricPass, report.Metrics["cpu"].Status)
	assert.Equal(t, schema.MetricMissingCurrent, report.Metrics["latency"].Status)
	assert.Nil(t, report.Metrics["latency"].Current)
	assert.Equal(t, schema.MetricExtraCurrent, report.Metrics["memory"].Status)
	assert.Nil(t, report.Metrics["memory"].Baseline)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, 3, report.Summary.MetricsTotal)
}

func TestCompare_ErrorBeatsFailure(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{"latency": budget(100, 1, 1, true, schema.SeverityHigh)},
		map[string]schema.MetricSample{"latency": {Value: 200}, "extra": {Value: 1}},
	)
	assert.Equal(t, schema.StatusError, report.Status)
	assert.Equal(t, 1, report.Summary.Failures)
	assert.Equal(t, "current payload has unmapped metrics", report.Error)
}

func TestCompare_Direction(t *testing.T) {
	tests := []struct {
		name   string
		budget schema.MetricBudget
		value  float64
		want   schema.Status
	}{
		{"improvement when higher is worse", budget(100, 1, 0, true, schema.SeverityHigh), 90, schema.StatusPass},
		{"improvement when lower is worse", budget(100, 1, 0, false, schema.SeverityHigh), 120, schema.StatusPass},
		{"drop when lower is worse", budget(100, 5, 100, false, schema.SeverityHigh), 90, schema.StatusFail},
		{"unchanged", budget(100, 0, 0, true, schema.SeverityHigh), 100, schema.StatusPass},
		{"drift within budget", budget(100, 10, 10, true, schema.SeverityHigh), 104, schema.StatusPass},
		{"exactly at absolute budget", budget(0.3, 1e9, 0.1, true, schema.SeverityLow), 0.4, schema.StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Compare(
				map[string]schema.MetricBudget{"m": tt.budget},
				map[string]schema.MetricSample{"m": {Value: tt.value}},
			)
			assert.Equal(t, tt.want, report.Status)
		})
	}
}

func TestCompare_DriftIsVisible(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{"m": budget(100, 10, 10, true, schema.SeverityHigh)},
		map[string]schema.MetricSample{"m": {Value: 104}},
	)
	row := report.Metrics["m"]
	assert.Equal(t, schema.MetricPass, row.Status)
	require.NotNil(t, row.DeltaAbs)
	assert.InDelta(t, 4.0, *row.DeltaAbs, 1e-9)
	assert.True(t, row.DeltaPct.Valid)
	assert.Empty(t, report.Findings)
}

func TestCompare_Improvement(t *testing.T) {
	report := Compare(
		map[string]schema.MetricBudget{"m": budget(100, 10, 0, true, schema.SeverityHigh)},
		map[string]schema.MetricSample{"m": {Value: 90}},
	)
	row := report.Metrics["m"]
	assert.InDelta(t, -10.0, *row.DeltaAbs, 1e-9)
	assert.False(t, row.DeltaPct.Valid)
}

func TestCompare_Idempotent(t *testing.T) {
	baseline := map[string]schema.MetricBudget{
		"a": budget(10, 5, 0, true, schema.SeverityHigh),
		"b": budget(0, 5, 0, true, schema.SeverityCritical),
		"c": budget(3, 5, 0, false, schema.SeverityLow),
	}
	current := map[string]schema.MetricSample{"a": {Value: 11}, "b": {Value: 2}, "d": {Value: 1}}

	first, err := schema.CanonicalJSON(Compare(baseline, current))
	require.NoError(t, err)
	for range 3 {
		again, err := schema.CanonicalJSON(Compare(baseline, current))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestSchemaErrorReport(t *testing.T) {
	report := SchemaErrorReport(errors.New("baseline.json: metrics must be a non-empty object"))
	assert.Equal(t, schema.StatusError, report.Status)
	assert.Equal(t, schema.ComparisonSummary{MetricsTotal: 0, FindingsTotal: 1, Failures: 0, Errors: 1}, report.Summary)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, CodeSchemaError, report.Findings[0].Code)
	assert.Equal(t, schema.SeverityCritical, report.Findings[0].Severity)
	assert.Empty(t, report.Metrics)
	assert.NotNil(t, report.Metrics)
}

func TestDeltaPctText(t *testing.T) {
	assert.Equal(t, "n/a", deltaPctText(schema.Percent{}))
	assert.Equal(t, "+Inf", deltaPctText(schema.PercentOf(math.Inf(1))))
	assert.Equal(t, "6", deltaPctText(schema.PercentOf(6)))
}
