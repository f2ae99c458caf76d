package budgetdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AmirTlinov/compas/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baselineJSON = `{
  "version": 1,
  "metrics": {
    "latency_p95_ms": {"value": 100, "max_delta_pct": 10, "max_delta_abs": 5, "higher_is_worse": true, "severity": "HIGH"},
    "throughput": {"value": 2.5e3, "max_delta_pct": 0, "max_delta_abs": 0, "higher_is_worse": false, "severity": "medium"}
  }
}`

const baselineYAML = `
version: 1
metrics:
  latency_p95_ms:
    value: 100
    max_delta_pct: 10
    max_delta_abs: 5
    higher_is_worse: true
    severity: high
  throughput:
    value: 2500.0
    max_delta_pct: 0
    max_delta_abs: 0
    higher_is_worse: false
    severity: medium
`

const baselineTOML = `
version = 1

[metrics.latency_p95_ms]
value = 100
max_delta_pct = 10
max_delta_abs = 5
higher_is_worse = true
severity = "high"

[metrics.throughput]
value = 2500.0
max_delta_pct = 0
max_delta_abs = 0
higher_is_worse = false
severity = "medium"
`

func TestParseBaseline_Formats(t *testing.T) {
	want := map[string]schema.MetricBudget{
		"latency_p95_ms": {Value: 100, MaxDeltaPct: 10, MaxDeltaAbs: 5, HigherIsWorse: true, Severity: schema.SeverityHigh},
		"throughput":     {Value: 2500, MaxDeltaPct: 0, MaxDeltaAbs: 0, HigherIsWorse: false, Severity: schema.SeverityMedium},
	}
	tests := []struct {
		format Format
		data   string
	}{
		{JSONFormat, baselineJSON},
		{YAMLFormat, baselineYAML},
		{TOMLFormat, baselineTOML},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := ParseBaseline([]byte(tt.data), tt.format, "baseline")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseBaseline_Rejects(t *testing.T) {
	metric := func(body string) string {
		return `{"version": 1, "metrics": {"m": ` + body + `}}`
	}
	valid := `"value": 1, "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": true, "severity": "low"`

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"not an object", `[1, 2]`, "must be an object"},
		{"unknown top-level key", `{"version": 1, "metrics": {}, "extra": true}`, "unknown top-level keys: [extra]"},
		{"wrong version", `{"version": 2, "metrics": {"m": {}}}`, "schema version 1"},
		{"bool version", `{"version": true, "metrics": {"m": {}}}`, "schema version 1"},
		{"missing version", `{"metrics": {"m": {}}}`, "schema version 1"},
		{"metrics not object", `{"version": 1, "metrics": []}`, "metrics must be an object"},
		{"empty metrics", `{"version": 1, "metrics": {}}`, "at least one metric"},
		{"bad metric name", `{"version": 1, "metrics": {"-bad": {}}}`, "invalid metric name"},
		{"metric not object", metric(`5`), "must be an object"},
		{"unknown metric key", metric(`{` + valid + `, "unit": "ms"}`), "unknown keys: [unit]"},
		{"missing metric key", metric(`{"value": 1}`), "missing keys"},
		{"bool value", metric(`{"value": true, "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": true, "severity": "low"}`), "value must be a number"},
		{"string value", metric(`{"value": "1", "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": true, "severity": "low"}`), "value must be a number"},
		{"overflow value", metric(`{"value": 1e400, "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": true, "severity": "low"}`), "finite"},
		{"non-bool direction", metric(`{"value": 1, "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": 1, "severity": "low"}`), "higher_is_worse must be boolean"},
		{"empty severity", metric(`{"value": 1, "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": true, "severity": " "}`), "non-empty string"},
		{"unknown severity", metric(`{"value": 1, "max_delta_pct": 1, "max_delta_abs": 1, "higher_is_worse": true, "severity": "blocker"}`), "severity must be one of"},
		{"negative pct", metric(`{"value": 1, "max_delta_pct": -1, "max_delta_abs": 1, "higher_is_worse": true, "severity": "low"}`), "max_delta_pct must be >= 0"},
		{"negative abs", metric(`{"value": 1, "max_delta_pct": 1, "max_delta_abs": -1, "higher_is_worse": true, "severity": "low"}`), "max_delta_abs must be >= 0"},
		{"trailing data", `{"version": 1, "metrics": {"m": {` + valid + `}}} {}`, "unexpected data"},
		{"malformed", `{"version": 1,`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBaseline([]byte(tt.data), JSONFormat, "baseline")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchema)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseBaseline_NonFiniteYAML(t *testing.T) {
	data := `
version: 1
metrics:
  m:
    value: .inf
    max_delta_pct: 1
    max_delta_abs: 1
    higher_is_worse: true
    severity: low
`
	_, err := ParseBaseline([]byte(data), YAMLFormat, "baseline")
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorContains(t, err, "finite")
}

func TestParseCurrent(t *testing.T) {
	got, err := ParseCurrent([]byte(`{"version": 1, "metrics": {"a": {"value": 1.5}, "b.c-d_e": {"value": -2}}}`), JSONFormat, "current")
	require.NoError(t, err)
	assert.Equal(t, map[string]schema.MetricSample{"a": {Value: 1.5}, "b.c-d_e": {Value: -2}}, got)

	_, err = ParseCurrent([]byte(`{"version": 1, "metrics": {"a": {"value": 1, "severity": "low"}}}`), JSONFormat, "current")
	assert.ErrorContains(t, err, "unknown keys: [severity]")

	_, err = ParseCurrent([]byte("version = 1\n[metrics.a]\nvalue = nan\n"), TOMLFormat, "current")
	assert.ErrorContains(t, err, "finite")
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, JSONFormat, FormatFromPath("baseline.json"))
	assert.Equal(t, YAMLFormat, FormatFromPath("baseline.YML"))
	assert.Equal(t, YAMLFormat, FormatFromPath("dir/baseline.yaml"))
	assert.Equal(t, TOMLFormat, FormatFromPath("baseline.toml"))
	assert.Equal(t, JSONFormat, FormatFromPath("baseline"))
}

func TestLoadBaselineAndCurrent(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "baseline.yaml")
	curPath := filepath.Join(dir, "current.json")
	require.NoError(t, os.WriteFile(basePath, []byte(baselineYAML), 0o644))
	require.NoError(t, os.WriteFile(curPath, []byte(`{"version":1,"metrics":{"latency_p95_ms":{"value":101}}}`), 0o644))

	baseline, err := LoadBaseline(basePath)
	require.NoError(t, err)
	assert.Len(t, baseline, 2)

	current, err := LoadCurrent(curPath)
	require.NoError(t, err)
	assert.Equal(t, 101.0, current["latency_p95_ms"].Value)

	_, err = LoadBaseline(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrSchema)
	assert.ErrorContains(t, err, "does not exist")
}
