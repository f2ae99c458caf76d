package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AmirTlinov/compas/core"
	"github.com/AmirTlinov/compas/core/budgetdoc"
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	runner  contract.ToolRunner
	client  contract.GitClient
}

func (h *toolHandler) handleCompareBudgets(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseline := request.GetString("baseline", "")
	current := request.GetString("current", "")
	if strings.TrimSpace(baseline) == "" || strings.TrimSpace(current) == "" {
		return mcp.NewToolResultError("baseline and current documents are required"), nil
	}

	baselineFormat, err := parseFormat(request.GetString("baseline_format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	currentFormat, err := parseFormat(request.GetString("current_format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := core.CompareDocuments([]byte(baseline), baselineFormat, []byte(current), currentFormat)
	return jsonResult(report), nil
}

func (h *toolHandler) handleEvaluateScannerResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyIdentity(cfg, request); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := core.ParseScannerResults([]byte(request.GetString("scanner_results", "")))
	if err != nil {
		results = []schema.ScannerResult{core.InvalidInputResult(cfg.PluginID, err)}
	}

	builder, err := core.EvaluateScannerResults(ctx, cfg, h.client, results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}
	h.record(builder)
	return jsonResult(schema.AdapterEnvelope{AdapterResult: *builder.GetResult()}), nil
}

func (h *toolHandler) handleNormalizeSeverity(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := request.GetString("source", "")
	raw := request.GetString("severity", "")

	sev, err := core.NormalizeSeverity(source, raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(schema.SeverityMapping{Source: strings.ToLower(strings.TrimSpace(source)), Raw: raw, Canonical: sev}), nil
}

func (h *toolHandler) handleListSeverityTables(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sources []string
	if s := request.GetString("source", ""); s != "" {
		sources = append(sources, s)
	}
	rows, err := core.SeverityMappings(sources...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows), nil
}

func (h *toolHandler) handleRunAdapter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RepoPath = p
	}

	builder, err := core.RunAdapter(ctx, cfg, h.runner, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("adapter run failed: %v", err)), nil
	}
	h.record(builder)
	return jsonResult(schema.AdapterEnvelope{AdapterResult: *builder.GetResult()}), nil
}

// record stores the run when history is enabled. Failures never change the result.
func (h *toolHandler) record(builder *core.AdapterResultBuilder) {
	if h.mgr == nil {
		return
	}
	store := h.mgr.GetHistoryStore()
	if store == nil {
		return
	}
	if _, err := store.RecordAdapterRun(builder.StartTime(), *builder.GetResult()); err != nil {
		contract.LogWarn("Failed to record adapter run", err)
	}
}

func applyIdentity(cfg *contract.Config, request mcp.CallToolRequest) error {
	if id := request.GetString("plugin_id", ""); id != "" {
		if err := contract.ValidateIdentifier("plugin id", id); err != nil {
			return err
		}
		cfg.PluginID = id
	}
	if id := request.GetString("adapter_id", ""); id != "" {
		if err := contract.ValidateIdentifier("adapter id", id); err != nil {
			return err
		}
		cfg.AdapterID = id
	}
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RepoPath = p
	}
	return nil
}

func parseFormat(s string) (budgetdoc.Format, error) {
	switch budgetdoc.Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", budgetdoc.JSONFormat:
		return budgetdoc.JSONFormat, nil
	case budgetdoc.YAMLFormat:
		return budgetdoc.YAMLFormat, nil
	case budgetdoc.TOMLFormat:
		return budgetdoc.TOMLFormat, nil
	default:
		return "", fmt.Errorf("unsupported document format '%s'. must be json, yaml, toml", s)
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	canonical, err := schema.CanonicalJSON(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	var jsonData bytes.Buffer
	if err := json.Indent(&jsonData, canonical, "", "  "); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(jsonData.String())
}
