// Package main provides a performance benchmarking tool for the compas CLI.
// It measures execution times of the gate commands against generated fixtures,
// running each command multiple times, treating the first successful run as cold
// and averaging the rest as warm. Results are written as CSV for inspection and
// as a current-metrics document that 'compas budget' can compare against a baseline.
//
// Prerequisites:
// - compas binary installed and available in PATH
//
// Usage: go run benchmark/main.go [output-dir]
//
//	output-dir: Directory for fixtures and results (default: a temporary directory)
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Command  string
	Findings int
	ColdTime float64 // seconds; 0 means every run failed
	WarmTime float64 // seconds; 0 means no warm run succeeded
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	OutputDir     string
	Timeout       time.Duration
	Runs          int
	FindingCounts []int
}

// currentDocument mirrors the current-metrics document read by 'compas budget'.
type currentDocument struct {
	Version int                      `json:"version"`
	Metrics map[string]currentMetric `json:"metrics"`
}

type currentMetric struct {
	Value float64 `json:"value"`
}

func main() {
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [output-dir]\n", os.Args[0])
		os.Exit(1)
	}

	outputDir := ""
	if len(os.Args) == 2 {
		outputDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "compas-bench-")
		if err != nil {
			fmt.Printf("Failed to create output directory: %v\n", err)
			os.Exit(1)
		}
		outputDir = dir
	}

	config := BenchmarkConfig{
		OutputDir:     outputDir,
		Timeout:       2 * time.Minute,
		Runs:          5,
		FindingCounts: []int{10, 1000, 20000},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(config, results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the compas binary exists and the output dir is writable.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("compas"); err != nil {
		return fmt.Errorf("compas binary not found in PATH")
	}
	return os.MkdirAll(config.OutputDir, 0o755)
}

// runBenchmarks executes every command against fixtures of increasing size.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d runs per command\n",
		len(config.FindingCounts), config.Timeout, config.Runs)

	for _, n := range config.FindingCounts {
		scannersPath := filepath.Join(config.OutputDir, fmt.Sprintf("scanners_%d.json", n))
		if err := writeScannerFixture(scannersPath, n); err != nil {
			return nil, err
		}
		baselinePath := filepath.Join(config.OutputDir, fmt.Sprintf("baseline_%d.json", n))
		currentPath := filepath.Join(config.OutputDir, fmt.Sprintf("current_fixture_%d.json", n))
		if err := writeBudgetFixtures(baselinePath, currentPath, n); err != nil {
			return nil, err
		}

		results = append(results,
			runBenchmarkSuite(config, "evaluate", n, "Gate completed in",
				"evaluate", "--input", scannersPath),
			runBenchmarkSuite(config, "evaluate-json", n, `"adapter_result"`,
				"evaluate", "--input", scannersPath, "--output", "json"),
			runBenchmarkSuite(config, "budget", n, "Comparison completed in",
				"budget", "--baseline", baselinePath, "--current", currentPath),
		)
	}

	return results, nil
}

// runBenchmarkSuite runs one command config.Runs times.
func runBenchmarkSuite(config BenchmarkConfig, name string, findings int, marker string, args ...string) BenchmarkResult {
	fmt.Printf("Running %s with %d findings\n", name, findings)

	times := runBenchmark(config, marker, args)
	result := BenchmarkResult{Command: name, Findings: findings}
	if len(times) > 0 {
		result.ColdTime = times[0]
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		result.WarmTime = sum / float64(len(times)-1)
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", formatSeconds(result.ColdTime), formatSeconds(result.WarmTime))
	return result
}

// runBenchmark executes compas repeatedly and returns the durations of successful runs.
func runBenchmark(config BenchmarkConfig, marker string, args []string) []float64 {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()

		cmd := exec.CommandContext(ctx, "compas", append(args, "--history-backend", "none", "--color", "no")...)
		cmd.Dir = config.OutputDir
		output, err := cmd.Output()
		elapsed := time.Since(start).Seconds()
		cancel()

		if isSuccess(output, err, marker) {
			times = append(times, elapsed)
		}
	}
	return times
}

// isSuccess accepts any gate outcome that produced a complete document.
// Exit code 1 means the gate failed, which is still a completed run.
func isSuccess(output []byte, err error, marker string) bool {
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() > 2 {
			return false
		}
	}
	return strings.Contains(string(output), marker)
}

// writeScannerFixture writes a scanner result list with n findings spread over all severities.
func writeScannerFixture(path string, n int) error {
	severities := []string{"low", "medium", "high", "critical"}
	findings := make([]map[string]any, 0, n)
	for i := range n {
		findings = append(findings, map[string]any{
			"code":     fmt.Sprintf("bench.rule_%d", i%37),
			"severity": severities[i%len(severities)],
			"category": "secrets",
			"message":  fmt.Sprintf("synthetic finding %d", i),
			"path":     fmt.Sprintf("pkg/mod%d/file%d.go", i%50, i%400),
			"line":     1 + i%900,
		})
	}
	doc := []map[string]any{{
		"scanner":  "bench",
		"status":   "fail",
		"findings": findings,
	}}
	return writeJSON(path, doc)
}

// writeBudgetFixtures writes a baseline and a current document with n metrics,
// every tenth of which regresses past its budget.
func writeBudgetFixtures(baselinePath, currentPath string, n int) error {
	baseline := map[string]any{"version": 1}
	current := currentDocument{Version: 1, Metrics: map[string]currentMetric{}}
	metrics := map[string]any{}
	for i := range n {
		name := fmt.Sprintf("metric_%05d", i)
		metrics[name] = map[string]any{
			"value":           100.0,
			"max_delta_pct":   5.0,
			"max_delta_abs":   10.0,
			"higher_is_worse": true,
			"severity":        "high",
		}
		value := 101.0
		if i%10 == 0 {
			value = 120.0
		}
		current.Metrics[name] = currentMetric{Value: value}
	}
	baseline["metrics"] = metrics

	if err := writeJSON(baselinePath, baseline); err != nil {
		return err
	}
	return writeJSON(currentPath, current)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// saveResults writes the CSV table and the current-metrics document.
func saveResults(config BenchmarkConfig, results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	csvPath := filepath.Join(config.OutputDir, fmt.Sprintf("compas_benchmark_%s.csv", timestamp))

	file, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", csvPath, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"cmd", "findings", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		record := []string{r.Command, fmt.Sprint(r.Findings), formatSeconds(r.ColdTime), formatSeconds(r.WarmTime)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	fmt.Printf("Results saved to %s\n", csvPath)

	// Only warm averages become budget metrics; cold runs are too noisy.
	doc := currentDocument{Version: 1, Metrics: map[string]currentMetric{}}
	for _, r := range results {
		if r.WarmTime > 0 {
			key := fmt.Sprintf("%s_%d_warm_ms", strings.ReplaceAll(r.Command, "-", "_"), r.Findings)
			doc.Metrics[key] = currentMetric{Value: r.WarmTime * 1000}
		}
	}
	currentPath := filepath.Join(config.OutputDir, "current.json")
	if err := writeJSON(currentPath, doc); err != nil {
		return err
	}
	fmt.Printf("Current metrics saved to %s\n", currentPath)
	return nil
}

func formatSeconds(s float64) string {
	if s == 0 {
		return "FAILED"
	}
	return fmt.Sprintf("%.3fs", s)
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	commands := map[string]struct{}{}
	for _, r := range results {
		commands[r.Command] = struct{}{}
	}
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s:\n", name)
		for _, r := range results {
			if r.Command == name {
				fmt.Printf("  %6d findings: Cold: %s, Warm: %s\n", r.Findings, formatSeconds(r.ColdTime), formatSeconds(r.WarmTime))
			}
		}
	}
}
