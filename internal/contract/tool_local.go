package contract

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/AmirTlinov/compas/internal/logging"
	"github.com/AmirTlinov/compas/schema"
)

// LocalToolRunner implements the ToolRunner interface with os/exec.
type LocalToolRunner struct{}

var _ ToolRunner = &LocalToolRunner{} // Compile-time check

// NewLocalToolRunner creates a new instance of the local tool runner.
func NewLocalToolRunner() *LocalToolRunner {
	return &LocalToolRunner{}
}

// LookPath implements the ToolRunner interface.
func (r *LocalToolRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements the ToolRunner interface. A timeout is reported with exit code 124
// and a missing executable with 127; neither is returned as an error.
func (r *LocalToolRunner) Run(ctx context.Context, inv ToolInvocation) (ToolOutput, error) {
	if len(inv.Args) == 0 {
		return ToolOutput{}, errors.New("tool invocation has no executable")
	}

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(runCtx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := ToolOutput{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	logging.Logger.Debugw("tool finished", "args", inv.Args, "dir", inv.Dir, "duration", out.Duration, "err", err)

	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.ExitCode = schema.ExitTimeout
		out.TimedOut = true
	case errors.Is(err, exec.ErrNotFound):
		out.ExitCode = schema.ExitNotFound
		out.NotFound = true
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	case ctx.Err() != nil:
		return out, ctx.Err()
	default:
		// Start failures such as a non-executable file.
		out.ExitCode = schema.ExitNotFound
		out.NotFound = true
	}
	return out, nil
}
