package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Command describes an external tool invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is appended to the current process environment.
	Env []string
	// Stream copies output to the process stdout/stderr instead of capturing it.
	Stream  bool
	Timeout time.Duration
}

// CommandRunner executes external tools. Services depend on it so tests can
// substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

type execRunner struct{}

// NewExecRunner returns a CommandRunner backed by os/exec.
func NewExecRunner() CommandRunner {
	return execRunner{}
}

// Run runs a command with timeout and proper resource cleanup.
func (execRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	var stdout, stderr bytes.Buffer
	if c.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %v", c.Name, c.Timeout)
		}
		if msg := stderr.String(); msg != "" {
			return nil, fmt.Errorf("%s failed: %w (stderr: %s)", c.Name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", c.Name, err)
	}
	return stdout.Bytes(), nil
}
