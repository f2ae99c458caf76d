package schema

import (
	"encoding/json"
	"math"
	"strconv"
)

// BudgetDocumentVersion is the only supported version of budget documents.
const BudgetDocumentVersion = 1

// MetricBudget is the baseline entry for one metric.
type MetricBudget struct {
	Value         float64  `json:"value"`
	MaxDeltaPct   float64  `json:"max_delta_pct"`
	MaxDeltaAbs   float64  `json:"max_delta_abs"`
	HigherIsWorse bool     `json:"higher_is_worse"`
	Severity      Severity `json:"severity"`
}

// MetricSample is the current measurement of one metric.
type MetricSample struct {
	Value float64 `json:"value"`
}

// BaselineDocument is the on-disk form of a baseline.
type BaselineDocument struct {
	Version int                     `json:"version"`
	Metrics map[string]MetricBudget `json:"metrics"`
}

// CurrentDocument is the on-disk form of a current measurement set.
type CurrentDocument struct {
	Version int                     `json:"version"`
	Metrics map[string]MetricSample `json:"metrics"`
}

// Percent is an optional percentage that may be +Inf.
// Invalid encodes as null and +Inf as the string "+Inf".
type Percent struct {
	Value float64
	Valid bool
}

// PercentOf returns a valid Percent.
func PercentOf(v float64) Percent {
	return Percent{Value: v, Valid: true}
}

// IsInf reports whether p is a valid infinite percentage.
func (p Percent) IsInf() bool {
	return p.Valid && math.IsInf(p.Value, 1)
}

// String renders p for humans.
func (p Percent) String() string {
	switch {
	case !p.Valid:
		return "-"
	case p.IsInf():
		return "+Inf"
	default:
		return strconv.FormatFloat(p.Value, 'g', 12, 64)
	}
}

// MarshalJSON implements json.Marshaler.
func (p Percent) MarshalJSON() ([]byte, error) {
	switch {
	case !p.Valid:
		return []byte("null"), nil
	case p.IsInf():
		return []byte(`"+Inf"`), nil
	default:
		return json.Marshal(p.Value)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*p = Percent{}
		return nil
	case `"+Inf"`:
		*p = PercentOf(math.Inf(1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = PercentOf(v)
	return nil
}

// BudgetFinding is a finding produced by the metric regression comparator.
type BudgetFinding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Metric   string   `json:"metric,omitempty"`
	Message  string   `json:"message"`
	Delta    *float64 `json:"delta,omitempty"`
	DeltaPct Percent  `json:"delta_pct,omitzero"`
	LimitPct *float64 `json:"limit_pct,omitempty"`
	LimitAbs *float64 `json:"limit_abs,omitempty"`
}

// MetricComparison is the per-metric row of a ComparisonReport.
type MetricComparison struct {
	Status        MetricStatus `json:"status"`
	Baseline      *float64     `json:"baseline"`
	Current       *float64     `json:"current"`
	DeltaAbs      *float64     `json:"delta_abs"`
	DeltaPct      Percent      `json:"delta_pct"`
	HigherIsWorse *bool        `json:"higher_is_worse,omitempty"`
	Severity      Severity     `json:"severity,omitempty"`
}

// ComparisonSummary counts the outcome of a comparison.
type ComparisonSummary struct {
	MetricsTotal  int `json:"metrics_total"`
	FindingsTotal int `json:"findings_total"`
	Failures      int `json:"failures"`
	Errors        int `json:"errors"`
}

// ComparisonReport is the full output of a budget comparison.
type ComparisonReport struct {
	Status   Status                      `json:"status"`
	Summary  ComparisonSummary           `json:"summary"`
	Error    string                      `json:"error,omitempty"`
	Findings []BudgetFinding             `json:"findings"`
	Metrics  map[string]MetricComparison `json:"metrics"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}
