package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRank(t *testing.T) {
	tests := []struct {
		sev  Severity
		want int
	}{
		{SeverityLow, 1},
		{SeverityMedium, 2},
		{SeverityHigh, 3},
		{SeverityCritical, 4},
		{Severity("warning"), 0},
		{Severity(""), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.sev), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sev.Rank())
			assert.Equal(t, tt.want > 0, tt.sev.Valid())
		})
	}
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
}

func TestParseSeverity(t *testing.T) {
	sev, ok := ParseSeverity("  HIGH ")
	assert.True(t, ok)
	assert.Equal(t, SeverityHigh, sev)

	_, ok = ParseSeverity("error")
	assert.False(t, ok)
}

func TestStatusWorse(t *testing.T) {
	tests := []struct {
		a, b Status
		want Status
	}{
		{StatusPass, StatusPass, StatusPass},
		{StatusPass, StatusFail, StatusFail},
		{StatusFail, StatusPass, StatusFail},
		{StatusFail, StatusError, StatusError},
		{StatusError, StatusFail, StatusError},
		{StatusError, StatusPass, StatusError},
	}
	for _, tt := range tests {
		t.Run(string(tt.a)+"_"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Worse(tt.b))
		})
	}
}

func TestStatusExitCode(t *testing.T) {
	assert.Equal(t, 0, StatusPass.ExitCode())
	assert.Equal(t, 1, StatusFail.ExitCode())
	assert.Equal(t, 2, StatusError.ExitCode())
	assert.Equal(t, 2, Status("bogus").ExitCode())
}

func TestStatesOf(t *testing.T) {
	code := 1
	states := StatesOf([]ScannerResult{{
		Scanner:    "semgrep",
		OK:         false,
		Status:     StatusFail,
		DurationMs: 42,
		ExitCode:   &code,
		Command:    []string{"semgrep", "scan", "--json"},
		Version:    "1.2.3",
	}})
	assert.Len(t, states, 1)
	assert.Equal(t, "semgrep", states[0].Name)
	assert.Equal(t, StatusFail, states[0].Status)
	assert.Equal(t, 1, *states[0].ExitCode)
	assert.Equal(t, int64(42), states[0].DurationMs)
	assert.Equal(t, []string{"semgrep", "scan", "--json"}, states[0].Command)
}
