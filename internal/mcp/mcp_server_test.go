package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/history"
	mcp_internal "github.com/AmirTlinov/compas/internal/mcp"
	"github.com/AmirTlinov/compas/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func baseConfig() *contract.Config {
	return &contract.Config{
		RepoPath:  "/repo",
		PluginID:  "p13",
		AdapterID: "p13-secrets",
		BlockAt:   schema.SeverityHigh,
		Precision: 2,
	}
}

func gitClient() *contract.MockGitClient {
	client := &contract.MockGitClient{}
	client.On("GetRepoHash", mock.Anything, mock.Anything).Return("0f3c9a1", nil)
	return client
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func decodeEnvelope(t *testing.T, res *mcp.CallToolResult) schema.AdapterResult {
	t.Helper()
	var envelope schema.AdapterEnvelope
	require.NoError(t, json.Unmarshal([]byte(text(res)), &envelope))
	return envelope.AdapterResult
}

func TestNormalizeSeverityTool(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil)

	res := call(t, s, "normalize_severity", map[string]any{"source": "Semgrep", "severity": " ERROR "})
	assert.False(t, res.IsError)
	var row schema.SeverityMapping
	require.NoError(t, json.Unmarshal([]byte(text(res)), &row))
	assert.Equal(t, "semgrep", row.Source)
	assert.Equal(t, schema.SeverityCritical, row.Canonical)

	res = call(t, s, "normalize_severity", map[string]any{"source": "semgrep", "severity": "catastrophic"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "catastrophic")
}

func TestListSeverityTablesTool(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil)

	res := call(t, s, "list_severity_tables", map[string]any{"source": "gitleaks"})
	assert.False(t, res.IsError)
	var rows []schema.SeverityMapping
	require.NoError(t, json.Unmarshal([]byte(text(res)), &rows))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, "gitleaks", r.Source)
	}

	res = call(t, s, "list_severity_tables", map[string]any{"source": "nessus"})
	assert.True(t, res.IsError)
}

func TestCompareBudgetsTool(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil)
	baseline := `{"version": 1, "metrics": {"p95_ms": {"value": 100, "max_delta_pct": 10, "max_delta_abs": 5, "higher_is_worse": true, "severity": "high"}}}`

	t.Run("regression", func(t *testing.T) {
		res := call(t, s, "compare_budgets", map[string]any{
			"baseline":       baseline,
			"current":        "version: 1\nmetrics:\n  p95_ms: {value: 106}\n",
			"current_format": "yaml",
		})
		assert.False(t, res.IsError)
		var report schema.ComparisonReport
		require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
		assert.Equal(t, schema.StatusFail, report.Status)
		require.Len(t, report.Findings, 1)
		assert.Equal(t, "perf.metric_regression", report.Findings[0].Code)
	})

	t.Run("schema error is a report", func(t *testing.T) {
		res := call(t, s, "compare_budgets", map[string]any{"baseline": baseline, "current": `{"version": 1}`})
		assert.False(t, res.IsError)
		var report schema.ComparisonReport
		require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
		assert.Equal(t, schema.StatusError, report.Status)
		assert.Equal(t, "perf.schema_error", report.Findings[0].Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		res := call(t, s, "compare_budgets", map[string]any{"baseline": baseline, "current": baseline, "baseline_format": "xml"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "unsupported document format")
	})

	t.Run("missing documents", func(t *testing.T) {
		res := call(t, s, "compare_budgets", map[string]any{"baseline": baseline})
		assert.True(t, res.IsError)
	})
}

func TestEvaluateScannerResultsTool(t *testing.T) {
	store := &history.MockHistoryStore{}
	store.On("RecordAdapterRun", mock.Anything, mock.Anything).Return(int64(1), nil)
	mgr := &history.MockStoreManager{}
	mgr.On("GetHistoryStore").Return(store)
	s := mcp_internal.NewMCPServer(baseConfig(), mgr, mcp_internal.WithGitClient(gitClient()))

	t.Run("aggregates and seals", func(t *testing.T) {
		res := call(t, s, "evaluate_scanner_results", map[string]any{
			"plugin_id":       "p17",
			"scanner_results": `[{"scanner": "ruff", "ok": true, "status": "pass", "command": ["ruff", "check"],
				"findings": [{"code": "E501", "severity": "medium", "category": "quality", "message": "line too long", "evidence_ref": "ruff"}]}]`,
		})
		assert.False(t, res.IsError)
		result := decodeEnvelope(t, res)
		assert.Equal(t, schema.StatusPass, result.Status)
		assert.Equal(t, "p17", result.PluginID)
		assert.Equal(t, "0f3c9a1", result.Evidence.CommitSHA)
		assert.NotEmpty(t, result.Evidence.ReportHash)
	})

	t.Run("invalid results become an error document", func(t *testing.T) {
		res := call(t, s, "evaluate_scanner_results", map[string]any{"scanner_results": "not json"})
		assert.False(t, res.IsError)
		result := decodeEnvelope(t, res)
		assert.Equal(t, schema.StatusError, result.Status)
		assert.Equal(t, "p13.input.invalid_output", result.Findings[0].Code)
	})

	t.Run("invalid identity", func(t *testing.T) {
		res := call(t, s, "evaluate_scanner_results", map[string]any{"scanner_results": "[]", "adapter_id": "bad id"})
		assert.True(t, res.IsError)
	})

	store.AssertNumberOfCalls(t, "RecordAdapterRun", 2)
}

func TestRunAdapterTool(t *testing.T) {
	gitleaks := contract.ToolSpec{
		Name:        "gitleaks",
		Command:     []string{"gitleaks", "detect", "--report-format", "json"},
		Parser:      schema.GitleaksParser,
		Timeout:     time.Minute,
		OKExitCodes: []int{0, 1},
		Blocking:    true,
		VersionArgs: []string{"version"},
	}

	t.Run("no tools configured", func(t *testing.T) {
		s := mcp_internal.NewMCPServer(baseConfig(), nil, mcp_internal.WithToolRunner(&contract.MockToolRunner{}))
		res := call(t, s, "run_adapter", nil)
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "no tools configured")
	})

	t.Run("missing tool", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Tools = []contract.ToolSpec{gitleaks}
		runner := &contract.MockToolRunner{}
		runner.On("LookPath", "gitleaks").Return("", errors.New("executable file not found"))

		s := mcp_internal.NewMCPServer(cfg, nil, mcp_internal.WithToolRunner(runner), mcp_internal.WithGitClient(gitClient()))
		result := decodeEnvelope(t, call(t, s, "run_adapter", map[string]any{"repo_path": "/other"}))

		assert.Equal(t, schema.StatusError, result.Status)
		assert.Equal(t, "p13.tool.missing", result.Findings[0].Code)
		assert.Equal(t, schema.VersionMissing, result.Scanners[0].Version)
	})

	t.Run("findings", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Tools = []contract.ToolSpec{gitleaks}
		runner := &contract.MockToolRunner{}
		runner.On("LookPath", "gitleaks").Return("/usr/bin/gitleaks", nil)
		runner.On("Run", mock.Anything, mock.MatchedBy(func(inv contract.ToolInvocation) bool {
			return len(inv.Args) == 2
		})).Return(contract.ToolOutput{Stdout: []byte("v8.18.0\n")}, nil)
		runner.On("Run", mock.Anything, mock.MatchedBy(func(inv contract.ToolInvocation) bool {
			return len(inv.Args) > 2
		})).Return(contract.ToolOutput{
			Stdout:   []byte(`[{"RuleID": "aws-access-key", "Description": "AWS key", "File": "config/prod.env", "StartLine": 3, "Severity": "high"}]`),
			ExitCode: 1,
		}, nil)

		s := mcp_internal.NewMCPServer(cfg, nil, mcp_internal.WithToolRunner(runner), mcp_internal.WithGitClient(gitClient()))
		result := decodeEnvelope(t, call(t, s, "run_adapter", nil))

		assert.Equal(t, schema.StatusFail, result.Status)
		require.Len(t, result.Findings, 1)
		assert.Equal(t, "aws-access-key", result.Findings[0].Code)
		assert.Equal(t, schema.SeverityHigh, result.Findings[0].Severity)
		assert.Equal(t, "v8.18.0", result.Scanners[0].Version)
		runner.AssertExpectations(t)
	})
}
