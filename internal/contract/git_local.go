package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// GitLookupTimeout bounds every git call compas makes. Only HEAD and the
// repository root are ever read, so these calls are fast or broken.
const GitLookupTimeout = 10 * time.Second

var commitSHAPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// LocalGitClient reads repository facts through the git binary on PATH.
type LocalGitClient struct {
	timeout time.Duration
}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a git client bounded by GitLookupTimeout.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{timeout: GitLookupTimeout}
}

// Run executes git inside repoPath and returns its stdout. Git never
// prompts for credentials.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("git %s timed out in %q", strings.Join(args, " "), repoPath)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, fmt.Errorf("git command failed in %q: %s", repoPath, strings.TrimSpace(stderr.String()))
	}
	return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
}

// revParse returns the single line git rev-parse prints for arg.
func (c *LocalGitClient) revParse(ctx context.Context, repoPath, arg string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", arg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoHash returns the full object name of HEAD (SHA-1 or SHA-256).
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	sha, err := c.revParse(ctx, repoPath, "HEAD")
	if err != nil {
		return "", err
	}
	if !commitSHAPattern.MatchString(sha) {
		return "", fmt.Errorf("unexpected HEAD object name %q in %q", sha, repoPath)
	}
	return sha, nil
}

// GetRepoRoot returns the top-level directory of the work tree holding contextPath.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	return c.revParse(ctx, contextPath, "--show-toplevel")
}
