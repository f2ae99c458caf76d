// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/AmirTlinov/compas/schema"
)

// GitClient defines the Git operations compas needs.
// This allows the core logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)
}

// ToolInvocation describes one execution of an external tool.
type ToolInvocation struct {
	Args    []string // argv, Args[0] is the executable
	Dir     string
	Timeout time.Duration
}

// ToolOutput is what a finished (or aborted) tool execution produced.
type ToolOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
	TimedOut bool
	NotFound bool
}

// ToolRunner executes external tools. Implementations never return an error for
// a tool that ran and exited non-zero; that is reported through ToolOutput.
type ToolRunner interface {
	// LookPath reports whether the executable can be resolved.
	LookPath(name string) (string, error)

	// Run executes the invocation and blocks until it exits or times out.
	Run(ctx context.Context, inv ToolInvocation) (ToolOutput, error)
}

// StoreManager defines the interface for managing the history store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore records gate runs and their findings.
type HistoryStore interface {
	// RecordAdapterRun stores a sealed adapter result and returns its run ID.
	RecordAdapterRun(startTime time.Time, result schema.AdapterResult) (int64, error)

	// RecordBudgetRun stores a comparison report and returns its run ID.
	RecordBudgetRun(startTime time.Time, pluginID string, report schema.ComparisonReport) (int64, error)

	// GetAllRuns returns every recorded run ordered by ID.
	GetAllRuns() ([]schema.GateRunRecord, error)

	// GetAllFindings returns every recorded finding ordered by run and sequence.
	GetAllFindings() ([]schema.GateFindingRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection.
	Close() error
}
