package core

import (
	"context"
	"errors"
	"testing"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() schema.AdapterResult {
	exit := 1
	return schema.AdapterResult{
		Status:    schema.StatusFail,
		PluginID:  "p13",
		AdapterID: "p13-secrets",
		Scanners: []schema.ScannerState{{
			Name: "gitleaks", Command: []string{"gitleaks", "detect"}, ExitCode: &exit, DurationMs: 12,
			Version: "8.18.0", OK: false, Status: schema.StatusFail,
		}},
		Findings: []schema.Finding{finding("gitleaks.aws-key", schema.SeverityHigh, "config/<prod>.env", 3)},
		Metrics:  schema.AdapterMetrics{DurationMs: 20, FindingsTotal: 1},
		Evidence: schema.Evidence{ReportPath: "reports/p13.json"},
	}
}

func TestSealEvidence_Deterministic(t *testing.T) {
	result := sampleResult()
	line := StderrSummary(result)

	first, err := SealEvidence(result, "abc123", line)
	require.NoError(t, err)
	second, err := SealEvidence(result, "abc123", line)
	require.NoError(t, err)

	assert.Equal(t, first.Evidence, second.Evidence)
	assert.Len(t, first.Evidence.StdoutHash, 64)
	assert.Equal(t, HashBytes([]byte(line)), first.Evidence.StderrHash)
	assert.Equal(t, "abc123", first.Evidence.CommitSHA)
	assert.Equal(t, "reports/p13.json", first.Evidence.ReportPath)
	assert.NotEqual(t, first.Evidence.StdoutHash, first.Evidence.ReportHash)

	// The input is not modified.
	assert.Empty(t, result.Evidence.StdoutHash)
}

func TestSealEvidence_Sensitivity(t *testing.T) {
	base := sampleResult()
	sealed, err := SealEvidence(base, "abc123", StderrSummary(base))
	require.NoError(t, err)

	mutations := map[string]func(r *schema.AdapterResult){
		"status":   func(r *schema.AdapterResult) { r.Status = schema.StatusError },
		"message":  func(r *schema.AdapterResult) { r.Findings[0].Message += "!" },
		"line":     func(r *schema.AdapterResult) { r.Findings[0].Line = schema.IntPtr(4) },
		"duration": func(r *schema.AdapterResult) { r.Metrics.DurationMs++ },
		"version":  func(r *schema.AdapterResult) { r.Scanners[0].Version = "8.18.1" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			changed := sampleResult()
			mutate(&changed)
			resealed, err := SealEvidence(changed, "abc123", StderrSummary(base))
			require.NoError(t, err)
			assert.NotEqual(t, sealed.Evidence.StdoutHash, resealed.Evidence.StdoutHash)
			assert.NotEqual(t, sealed.Evidence.ReportHash, resealed.Evidence.ReportHash)
		})
	}

	t.Run("commit", func(t *testing.T) {
		resealed, err := SealEvidence(base, "def456", StderrSummary(base))
		require.NoError(t, err)
		assert.NotEqual(t, sealed.Evidence.StdoutHash, resealed.Evidence.StdoutHash)
	})

	t.Run("stderr line", func(t *testing.T) {
		resealed, err := SealEvidence(base, "abc123", "other")
		require.NoError(t, err)
		assert.Equal(t, sealed.Evidence.StdoutHash, resealed.Evidence.StdoutHash)
		assert.NotEqual(t, sealed.Evidence.StderrHash, resealed.Evidence.StderrHash)
		assert.NotEqual(t, sealed.Evidence.ReportHash, resealed.Evidence.ReportHash)
	})
}

func TestSealEvidence_UnknownCommit(t *testing.T) {
	sealed, err := SealEvidence(sampleResult(), "", "line")
	require.NoError(t, err)
	assert.Equal(t, schema.CommitUnknown, sealed.Evidence.CommitSHA)
}

func TestVerifyEvidence(t *testing.T) {
	result := sampleResult()
	line := StderrSummary(result)
	sealed, err := SealEvidence(result, "abc123", line)
	require.NoError(t, err)

	assert.NoError(t, VerifyEvidence(sealed, line))
	assert.ErrorContains(t, VerifyEvidence(sealed, "tampered"), "stderr_hash")

	tampered := sealed
	tampered.Status = schema.StatusPass
	assert.ErrorContains(t, VerifyEvidence(tampered, line), "stdout_hash")
}

func TestStderrSummary(t *testing.T) {
	assert.Equal(t, "P13 status=fail findings=1", StderrSummary(sampleResult()))
}

func TestResolveCommitSHA(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, schema.CommitUnknown, ResolveCommitSHA(ctx, nil, "/repo"))

	ok := &contract.MockGitClient{}
	ok.On("GetRepoHash", ctx, "/repo").Return("abc123\n", nil)
	assert.Equal(t, "abc123", ResolveCommitSHA(ctx, ok, "/repo"))
	ok.AssertExpectations(t)

	failing := &contract.MockGitClient{}
	failing.On("GetRepoHash", ctx, "/repo").Return("", errors.New("not a git repository"))
	assert.Equal(t, schema.CommitUnknown, ResolveCommitSHA(ctx, failing, "/repo"))
	failing.AssertExpectations(t)
}
