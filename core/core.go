// Package core has the gate logic: severity normalization, aggregation,
// evidence sealing and budget comparison.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AmirTlinov/compas/core/budgetdoc"
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/logging"
	"github.com/AmirTlinov/compas/internal/outwriter"
	"github.com/AmirTlinov/compas/schema"
)

// ExecutorFunc defines the function signature for the gate commands.
// The returned status decides the process exit code.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.Status, error)

// ExecuteScan runs every configured tool, prints the sealed AdapterResult and
// records it in history.
func ExecuteScan(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.Status, error) {
	builder, err := RunAdapter(ctx, cfg, contract.NewLocalToolRunner(), contract.NewLocalGitClient())
	if err != nil {
		return schema.StatusError, err
	}
	return finishAdapterRun(cfg, mgr, builder)
}

// ExecuteEvaluate aggregates scanner results collected by another process.
// An unreadable input still produces a complete error document.
func ExecuteEvaluate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.Status, error) {
	results, err := LoadScannerResults(cfg.InputPath)
	if err != nil {
		logging.Logger.Debugw("scanner results rejected", "path", cfg.InputPath, "err", err)
		results = []schema.ScannerResult{InvalidInputResult(cfg.PluginID, err)}
	}
	builder, err := EvaluateScannerResults(ctx, cfg, contract.NewLocalGitClient(), results)
	if err != nil {
		return schema.StatusError, err
	}
	return finishAdapterRun(cfg, mgr, builder)
}

// RunAdapter runs every configured tool and returns the builder holding the
// sealed result. Nothing is printed.
func RunAdapter(ctx context.Context, cfg *contract.Config, runner contract.ToolRunner, client contract.GitClient) (*AdapterResultBuilder, error) {
	builder := NewAdapterResultBuilder(ctx, cfg, runner, client)
	if _, err := builder.ValidatePrerequisites(); err != nil {
		return nil, err
	}
	return builder.RunScanners().Aggregate().BuildResult().Seal()
}

// EvaluateScannerResults aggregates results and returns the builder holding
// the sealed result. Nothing is printed.
func EvaluateScannerResults(ctx context.Context, cfg *contract.Config, client contract.GitClient, results []schema.ScannerResult) (*AdapterResultBuilder, error) {
	builder := NewAdapterResultBuilder(ctx, cfg, nil, client)
	return builder.WithScannerResults(results).Aggregate().BuildResult().Seal()
}

// ExecuteBudget compares a current-metrics document against a baseline.
func ExecuteBudget(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.Status, error) {
	start := time.Now()
	report := RunBudget(cfg.BaselinePath, cfg.CurrentPath)

	if err := outwriter.WriteComparisonReport(&report, cfg, time.Since(start)); err != nil {
		return schema.StatusError, err
	}
	if store := historyStore(mgr); store != nil {
		if _, err := store.RecordBudgetRun(start, cfg.PluginID, report); err != nil {
			contract.LogWarn("Failed to record budget run", err)
		}
	}
	return report.Status, nil
}

// RunBudget loads both documents and compares them. Any schema violation
// yields the single-finding error report.
func RunBudget(baselinePath, currentPath string) schema.ComparisonReport {
	baseline, err := budgetdoc.LoadBaseline(baselinePath)
	if err != nil {
		return SchemaErrorReport(err)
	}
	current, err := budgetdoc.LoadCurrent(currentPath)
	if err != nil {
		return SchemaErrorReport(err)
	}
	return Compare(baseline, current)
}

// CompareDocuments is RunBudget for documents already in memory.
func CompareDocuments(baseline []byte, baselineFormat budgetdoc.Format, current []byte, currentFormat budgetdoc.Format) schema.ComparisonReport {
	budgets, err := budgetdoc.ParseBaseline(baseline, baselineFormat, "baseline")
	if err != nil {
		return SchemaErrorReport(err)
	}
	samples, err := budgetdoc.ParseCurrent(current, currentFormat, "current")
	if err != nil {
		return SchemaErrorReport(err)
	}
	return Compare(budgets, samples)
}

// LoadScannerResults reads a JSON list of ScannerResult, either bare or under
// a "scanners" key.
func LoadScannerResults(path string) ([]schema.ScannerResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scanner results: %w", err)
	}
	return ParseScannerResults(data)
}

// ParseScannerResults decodes scanner results from data. Only an explicit
// empty list means no results; a null document is rejected.
func ParseScannerResults(data []byte) ([]schema.ScannerResult, error) {
	var results []schema.ScannerResult
	if err := json.Unmarshal(data, &results); err == nil {
		if results == nil {
			return nil, fmt.Errorf("invalid scanner results: document is null")
		}
		return results, nil
	}
	var doc struct {
		Scanners *[]schema.ScannerResult `json:"scanners"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid scanner results: %w", err)
	}
	if doc.Scanners == nil {
		return nil, fmt.Errorf("invalid scanner results: expected a list or an object with a scanners list")
	}
	return *doc.Scanners, nil
}

// InvalidInputResult stands in for scanner results that could not be read.
func InvalidInputResult(pluginID string, err error) schema.ScannerResult {
	return schema.ScannerResult{
		Scanner: "input",
		Status:  schema.StatusError,
		Findings: []schema.Finding{{
			Code:        pluginID + ".input.invalid_output",
			Severity:    schema.SeverityCritical,
			Category:    schema.CategoryAdapter,
			Message:     contract.Excerpt(err.Error(), contract.MaxRawOutputExcerpt),
			EvidenceRef: pluginID + ".adapter",
		}},
		Command: []string{},
		Version: schema.VersionUnknown,
	}
}

func finishAdapterRun(cfg *contract.Config, mgr contract.StoreManager, builder *AdapterResultBuilder) (schema.Status, error) {
	result := builder.GetResult()

	if err := outwriter.WriteAdapterResult(result, cfg, time.Since(builder.StartTime())); err != nil {
		return schema.StatusError, err
	}
	_, _ = fmt.Fprintln(os.Stderr, builder.StderrLine())

	if store := historyStore(mgr); store != nil {
		if _, err := store.RecordAdapterRun(builder.StartTime(), *result); err != nil {
			contract.LogWarn("Failed to record adapter run", err)
		}
	}
	return result.Status, nil
}

func historyStore(mgr contract.StoreManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}
