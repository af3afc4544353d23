// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// DefaultCommand is the registry CLI invocation used when none is configured.
const DefaultCommand = "wapm publish"

const dryRunFlag = "--dry-run"

var (
	// ErrPublishFailed is the sentinel error wrapped by CommandError.
	ErrPublishFailed = errors.New("publish command failed")
	// ErrEmptyCommand is returned when the configured command has no words.
	ErrEmptyCommand = errors.New("publish command is empty")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// CommandPublisher runs the registry CLI in the directory holding the manifest.
	CommandPublisher struct {
		command     string
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
	}

	// PublisherOption configures a CommandPublisher.
	PublisherOption func(*CommandPublisher)

	// CommandError is returned when the registry CLI cannot be started or
	// exits unsuccessfully.
	CommandError struct {
		Args []string
		// ExitCode is -1 when the process did not exit normally.
		ExitCode int
		Err      error
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	cmdline := strings.Join(e.Args, " ")
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%q exited unsuccessfully with exit code %d", cmdline, e.ExitCode)
	}
	return fmt.Sprintf("unable to run %q: %v", cmdline, e.Err)
}

// Unwrap returns ErrPublishFailed and the underlying cause.
func (e *CommandError) Unwrap() []error { return []error{ErrPublishFailed, e.Err} }

// WithPublisherExecCommand sets the command constructor.
func WithPublisherExecCommand(fn ExecCommandFunc) PublisherOption {
	return func(p *CommandPublisher) {
		p.execCommand = fn
	}
}

// WithPublisherOutput sets where the registry CLI output goes.
func WithPublisherOutput(stdout, stderr io.Writer) PublisherOption {
	return func(p *CommandPublisher) {
		p.stdout = stdout
		p.stderr = stderr
	}
}

// NewCommandPublisher creates a publisher for command, a shell-quoted command
// line such as "wapm publish". An empty command means DefaultCommand.
func NewCommandPublisher(command string, opts ...PublisherOption) *CommandPublisher {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	p := &CommandPublisher{
		command:     command,
		execCommand: exec.CommandContext,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Args returns the argv the publisher runs.
func (p *CommandPublisher) Args(dryRun bool) ([]string, error) {
	args, err := shell.Fields(p.command, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid publish command %q: %w", p.command, err)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	if dryRun {
		args = append(args, dryRunFlag)
	}
	return args, nil
}

// Publish implements Publisher.
func (p *CommandPublisher) Publish(ctx context.Context, manifestPath string, dryRun bool) error {
	args, err := p.Args(dryRun)
	if err != nil {
		return err
	}

	cmd := p.execCommand(ctx, args[0], args[1:]...)
	cmd.Dir = filepath.Dir(manifestPath)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	slog.Debug("publishing with the registry CLI", "args", args, "dir", cmd.Dir)
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &CommandError{Args: args, ExitCode: exitCode, Err: err}
	}
	return nil
}
