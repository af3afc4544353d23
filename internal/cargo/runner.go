// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// DefaultBinary is used when $CARGO is not set.
const DefaultBinary = "cargo"

// ErrCommandFailed is the sentinel error wrapped by CommandError.
var ErrCommandFailed = errors.New("cargo command failed")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Runner.
	Option func(*Runner)

	// Runner invokes the cargo binary.
	Runner struct {
		binary      string
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
	}

	// CommandError is returned when cargo cannot be started or exits unsuccessfully.
	CommandError struct {
		Binary string
		Args   []string
		// ExitCode is -1 when the process did not exit normally.
		ExitCode int
		// Stderr holds captured diagnostics, when they were captured.
		Stderr string
		Err    error
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	cmdline := e.Binary + " " + strings.Join(e.Args, " ")
	var msg string
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%q exited unsuccessfully with exit code %d", cmdline, e.ExitCode)
	} else {
		msg = fmt.Sprintf("unable to run %q: %v", cmdline, e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

// Unwrap returns ErrCommandFailed and the underlying cause.
func (e *CommandError) Unwrap() []error { return []error{ErrCommandFailed, e.Err} }

// BinaryFromEnv returns $CARGO, or DefaultBinary when unset.
func BinaryFromEnv() string {
	if bin := os.Getenv("CARGO"); bin != "" {
		return bin
	}
	return DefaultBinary
}

// WithBinary overrides the cargo binary.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithExecCommand sets the command constructor.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithOutput sets where build output is streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a Runner for the cargo binary named by $CARGO.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		binary:      BinaryFromEnv(),
		execCommand: exec.CommandContext,
		stdout:      os.Stderr,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binary returns the cargo binary the runner invokes.
func (r *Runner) Binary() string {
	return r.binary
}

// output runs cargo and returns its stdout. Stderr is captured for the error.
func (r *Runner) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := r.execCommand(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running cargo", "binary", r.binary, "args", args)
	if err := cmd.Run(); err != nil {
		return nil, r.commandError(args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// stream runs cargo with its output forwarded to the runner's writers.
func (r *Runner) stream(ctx context.Context, args ...string) error {
	cmd := r.execCommand(ctx, r.binary, args...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	slog.Debug("running cargo", "binary", r.binary, "args", args)
	if err := cmd.Run(); err != nil {
		return r.commandError(args, "", err)
	}
	return nil
}

func (r *Runner) commandError(args []string, stderr string, err error) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &CommandError{
		Binary:   r.binary,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}
