package core

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/AmirTlinov/compas/core/toolout"
	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/internal/logging"
	"github.com/AmirTlinov/compas/schema"
)

// ScanTool runs one configured tool and converts whatever happened into a
// ScannerResult. It never fails: a missing tool, a crash, a timeout or garbage
// output all become findings.
func ScanTool(ctx context.Context, runner contract.ToolRunner, pluginID, repoPath string, tool contract.ToolSpec, policy AggregationPolicy) schema.ScannerResult {
	if _, err := runner.LookPath(tool.Command[0]); err != nil {
		logging.Logger.Debugw("tool not found", "tool", tool.Name, "executable", tool.Command[0], "err", err)
		return missingToolResult(pluginID, tool)
	}

	version := probeVersion(ctx, runner, repoPath, tool)

	out, err := runner.Run(ctx, contract.ToolInvocation{
		Args:    tool.Command,
		Dir:     repoPath,
		Timeout: tool.Timeout,
	})
	if out.NotFound {
		return missingToolResult(pluginID, tool)
	}

	result := schema.ScannerResult{
		Scanner:    tool.Name,
		DurationMs: out.Duration.Milliseconds(),
		ExitCode:   &out.ExitCode,
		Command:    slices.Clone(tool.Command),
		Version:    version,
	}

	switch {
	case err != nil:
		return failedResult(result, toolFinding(pluginID, tool, "command_failed", schema.CategoryInfrastructure,
			fmt.Sprintf("%s could not be executed: %v", tool.Name, err)))
	case out.TimedOut:
		return failedResult(result, toolFinding(pluginID, tool, "command_failed", schema.CategoryInfrastructure,
			fmt.Sprintf("%s timed out after %s", tool.Name, tool.Timeout)))
	case !tool.AcceptsExitCode(out.ExitCode):
		msg := fmt.Sprintf("%s exited with code %d", tool.Name, out.ExitCode)
		if excerpt := contract.Excerpt(string(out.Stderr), contract.MaxRawOutputExcerpt); excerpt != "" {
			msg += ": " + excerpt
		}
		return failedResult(result, toolFinding(pluginID, tool, "command_failed", schema.CategoryInfrastructure, msg))
	}

	raw, err := toolout.Parse(tool.Parser, out.Stdout)
	if err != nil {
		return failedResult(result, toolFinding(pluginID, tool, "invalid_output", schema.CategoryAdapter,
			fmt.Sprintf("%s output could not be parsed: %v", tool.Name, err)))
	}

	result.Findings = NormalizeItems(pluginID, toolout.SeveritySource(tool.Parser), raw)
	SortFindings(result.Findings)
	result.Status = schema.StatusPass
	for _, f := range result.Findings {
		if policy.Blocks(f) {
			result.Status = schema.StatusFail
			break
		}
	}
	result.OK = result.Status == schema.StatusPass
	return result
}

// missingToolResult reports an unavailable tool. Only tools explicitly marked
// non-blocking are downgraded; they produce a low finding and pass.
func missingToolResult(pluginID string, tool contract.ToolSpec) schema.ScannerResult {
	exitCode := schema.ExitNotFound
	finding := schema.Finding{
		Code:        pluginID + ".tool.missing",
		Severity:    schema.SeverityCritical,
		Category:    schema.CategoryInfrastructure,
		Message:     fmt.Sprintf("%s is not installed or not on PATH (%s)", tool.Name, tool.Command[0]),
		EvidenceRef: pluginID + ".adapter." + tool.Name,
	}
	status := schema.StatusError
	if !tool.Blocking {
		finding.Severity = schema.SeverityLow
		finding.Message += "; skipped because the tool is non-blocking"
		status = schema.StatusPass
	}
	return schema.ScannerResult{
		Scanner:  tool.Name,
		OK:       false,
		Status:   status,
		Findings: []schema.Finding{finding},
		ExitCode: &exitCode,
		Command:  slices.Clone(tool.Command),
		Version:  schema.VersionMissing,
	}
}

func toolFinding(pluginID string, tool contract.ToolSpec, kind, category, message string) schema.Finding {
	return schema.Finding{
		Code:        fmt.Sprintf("%s.%s.%s", pluginID, tool.Name, kind),
		Severity:    schema.SeverityCritical,
		Category:    category,
		Message:     message,
		EvidenceRef: pluginID + ".adapter." + tool.Name,
	}
}

func failedResult(result schema.ScannerResult, f schema.Finding) schema.ScannerResult {
	result.OK = false
	result.Status = schema.StatusError
	result.Findings = []schema.Finding{f}
	return result
}

// probeVersion returns the first line the tool prints for its version flag.
func probeVersion(ctx context.Context, runner contract.ToolRunner, repoPath string, tool contract.ToolSpec) string {
	args := append([]string{tool.Command[0]}, tool.VersionArgs...)
	out, err := runner.Run(ctx, contract.ToolInvocation{
		Args:    args,
		Dir:     repoPath,
		Timeout: contract.VersionProbeTimeout,
	})
	if err != nil || out.NotFound || out.TimedOut || out.ExitCode != 0 {
		return schema.VersionUnknown
	}
	for _, stream := range [][]byte{out.Stdout, out.Stderr} {
		scanner := bufio.NewScanner(bytes.NewReader(stream))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line
			}
		}
	}
	return schema.VersionUnknown
}
