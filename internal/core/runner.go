package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCommandTimeout bounds a single external command. Package installs
// can legitimately take minutes; anything beyond this is treated as hung.
const DefaultCommandTimeout = 15 * time.Minute

// CmdResult is the captured outcome of one external command.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the command exited zero.
func (r CmdResult) Ok() bool {
	return r.ExitCode == 0
}

// Runner executes external commands through a Transport, enforcing a
// per-command timeout and logging every invocation. A non-zero exit code is
// NOT an error; callers inspect the result. The returned error is non-nil
// only for transport failures and timeouts.
type Runner struct {
	transport Transport
	pc        *ProvisionContext
	Timeout   time.Duration
}

func NewRunner(t Transport, pc *ProvisionContext) *Runner {
	return &Runner{transport: t, pc: pc, Timeout: DefaultCommandTimeout}
}

// Run executes a shell command line with the runner's default timeout.
func (r *Runner) Run(ctx context.Context, command string) (CmdResult, error) {
	return r.RunWithTimeout(ctx, command, r.Timeout)
}

// RunWithTimeout executes a shell command line, killing it once the timeout
// elapses.
func (r *Runner) RunWithTimeout(ctx context.Context, command string, timeout time.Duration) (CmdResult, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.pc.Logger.Debug("exec", "command", command)
	stdout, stderr, code, err := r.transport.Exec(cctx, command)

	// Mirror raw output into the installation log.
	if r.pc.RunLog != nil {
		fmt.Fprintf(r.pc.RunLog, "$ %s\n", command)
		if stdout != "" {
			fmt.Fprintln(r.pc.RunLog, stdout)
		}
		if stderr != "" {
			fmt.Fprintln(r.pc.RunLog, stderr)
		}
	}

	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return CmdResult{Stdout: stdout, Stderr: stderr, ExitCode: code}, &TimeoutError{Command: command, Timeout: timeout}
	}
	if err != nil {
		return CmdResult{Stdout: stdout, Stderr: stderr, ExitCode: code}, fmt.Errorf("exec %q: %w", command, err)
	}
	return CmdResult{Stdout: stdout, Stderr: stderr, ExitCode: code}, nil
}

// MustRun executes a command and converts a non-zero exit into a
// CommandError. Most apply actions use this.
func (r *Runner) MustRun(ctx context.Context, command string) (CmdResult, error) {
	res, err := r.Run(ctx, command)
	if err != nil {
		return res, err
	}
	if !res.Ok() {
		return res, &CommandError{Command: command, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}
