//go:build basic || database

// Package integration contains integration tests for compas.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Database tests need Docker: go test -tags database ./integration
package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedCompasPath holds the path to a shared compas binary built once for all tests.
	sharedCompasPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getCompasBinary returns the path to the compas binary, building it once if needed.
func getCompasBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "compas-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		compasPath := filepath.Join(tempDir, "compas")
		buildCmd := exec.Command("go", "build", "-o", compasPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build compas: %v", err))
		}

		sharedCompasPath = compasPath
	})

	return sharedCompasPath
}

// commandResult is the captured outcome of one CLI invocation.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCompas runs the binary in dir and returns its output and exit code.
// Non-zero exit codes are gate outcomes, not test failures.
func runCompas(t *testing.T, dir string, args ...string) commandResult {
	t.Helper()

	cmd := exec.Command(getCompasBinary(), args...)
	cmd.Dir = dir
	var stdout, stderr safeBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		require.True(t, errors.As(err, &exitErr), "command did not start: %v", err)
		result.ExitCode = exitErr.ExitCode()
	}
	if result.ExitCode > 2 {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), result.Stdout, result.Stderr)
	}
	return result
}

// safeBuffer is a minimal io.Writer for process output.
type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeBudgetFixtures writes a baseline and a current document that pass the gate.
func writeBudgetFixtures(t *testing.T, dir string) (baseline, current string) {
	t.Helper()
	baseline = writeFile(t, dir, "baseline.json", `{
  "version": 1,
  "metrics": {
    "build_ms": {"value": 100, "max_delta_pct": 10, "max_delta_abs": 50, "higher_is_worse": true, "severity": "high"}
  }
}`)
	current = writeFile(t, dir, "current.json", `{"version": 1, "metrics": {"build_ms": {"value": 105}}}`)
	return baseline, current
}

// decodeEnvelope parses the JSON document written by scan and evaluate.
func decodeEnvelope(t *testing.T, data string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &doc))
	result, ok := doc["adapter_result"].(map[string]any)
	require.True(t, ok, "missing adapter_result envelope: %s", data)
	return result
}
