// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Option customizes the dependencies of the MCP server.
type Option func(*toolHandler)

// WithToolRunner replaces the runner used by run_adapter.
func WithToolRunner(runner contract.ToolRunner) Option {
	return func(h *toolHandler) { h.runner = runner }
}

// WithGitClient replaces the client used to resolve commit SHAs.
func WithGitClient(client contract.GitClient) Option {
	return func(h *toolHandler) { h.client = client }
}

// NewMCPServer initializes and configures the compas MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, opts ...Option) *server.MCPServer {
	s := server.NewMCPServer(
		"Compas Quality Gate Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		runner:  contract.NewLocalToolRunner(),
		client:  contract.NewLocalGitClient(),
	}
	for _, opt := range opts {
		opt(h)
	}

	formats := []string{"json", "yaml", "toml"}

	// --- 1. Tool: compare_budgets ---
	s.AddTool(mcp.NewTool("compare_budgets",
		mcp.WithDescription("Compare a current-metrics document against a performance baseline and report regressions."),
		mcp.WithString("baseline", mcp.Description("Baseline document with per-metric value, budgets, direction and severity."), mcp.Required()),
		mcp.WithString("current", mcp.Description("Current-metrics document with one value per metric."), mcp.Required()),
		mcp.WithString("baseline_format", mcp.Description("Serialization of the baseline. Defaults to 'json'."), mcp.Enum(formats...)),
		mcp.WithString("current_format", mcp.Description("Serialization of the current document. Defaults to 'json'."), mcp.Enum(formats...)),
	), h.handleCompareBudgets)

	// --- 2. Tool: evaluate_scanner_results ---
	s.AddTool(mcp.NewTool("evaluate_scanner_results",
		mcp.WithDescription("Aggregate scanner results into one sealed adapter result with a pass, fail or error status."),
		mcp.WithString("scanner_results", mcp.Description("JSON list of scanner results, bare or under a 'scanners' key."), mcp.Required()),
		mcp.WithString("plugin_id", mcp.Description("Plugin identifier (defaults to the configured one).")),
		mcp.WithString("adapter_id", mcp.Description("Adapter identifier (defaults to the configured one).")),
		mcp.WithString("repo_path", mcp.Description("Repository whose HEAD is bound into the evidence.")),
	), h.handleEvaluateScannerResults)

	// --- 3. Tool: normalize_severity ---
	s.AddTool(mcp.NewTool("normalize_severity",
		mcp.WithDescription("Map a tool-native severity onto the canonical low, medium, high, critical scale."),
		mcp.WithString("source", mcp.Description("Tool whose vocabulary the severity uses (e.g. semgrep, gitleaks)."), mcp.Required()),
		mcp.WithString("severity", mcp.Description("The tool-native severity value."), mcp.Required()),
	), h.handleNormalizeSeverity)

	// --- 4. Tool: list_severity_tables ---
	s.AddTool(mcp.NewTool("list_severity_tables",
		mcp.WithDescription("List the severity tables of every supported tool, or of one tool."),
		mcp.WithString("source", mcp.Description("Restrict the listing to one tool.")),
	), h.handleListSeverityTables)

	// --- 5. Tool: run_adapter ---
	s.AddTool(mcp.NewTool("run_adapter",
		mcp.WithDescription("Run the configured scanners against a repository and return the sealed adapter result."),
		mcp.WithString("repo_path", mcp.Description("Path to the repository (defaults to the configured one).")),
	), h.handleRunAdapter)

	return s
}

// StartMCPServer starts the compas MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
