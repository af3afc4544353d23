// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPublisher_Args(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
		dryRun  bool
		want    []string
		wantErr bool
	}{
		{"default", "", false, []string{"wapm", "publish"}, false},
		{"dry_run", "", true, []string{"wapm", "publish", "--dry-run"}, false},
		{"quoted", `"/opt/my tools/wasmer" publish --quiet`, false, []string{"/opt/my tools/wasmer", "publish", "--quiet"}, false},
		{"unterminated", `wapm "publish`, false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewCommandPublisher(tt.command).Args(tt.dryRun)
			if tt.wantErr {
				require.Error(t, err, "Args() = %v", got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// helperCommand runs TestPublishHelperProcess in place of the registry CLI.
func helperCommand(exitCode int, calls *[][]string) ExecCommandFunc {
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string{name}, args...))
		cs := append([]string{"-test.run=TestPublishHelperProcess", "--", name}, args...)
		//nolint:gosec // TestPublishHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
		}
		return cmd
	}
}

func TestCommandPublisher_Publish(t *testing.T) {
	t.Parallel()

	var calls [][]string
	var out bytes.Buffer
	p := NewCommandPublisher("", WithPublisherExecCommand(helperCommand(0, &calls)), WithPublisherOutput(&out, &out))

	manifest := filepath.Join(t.TempDir(), "wapm.toml")
	require.NoError(t, p.Publish(context.Background(), manifest, true))
	assert.Equal(t, [][]string{{"wapm", "publish", "--dry-run"}}, calls)
	assert.Contains(t, out.String(), "published")
}

func TestCommandPublisher_ExitCode(t *testing.T) {
	t.Parallel()

	var calls [][]string
	p := NewCommandPublisher("wapm publish",
		WithPublisherExecCommand(helperCommand(2, &calls)),
		WithPublisherOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "wapm.toml"), false)
	require.ErrorIs(t, err, ErrPublishFailed)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 2, cmdErr.ExitCode)
	assert.Contains(t, err.Error(), "exit code 2")
}

func TestCommandPublisher_NotFound(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "no-such-wapm")
	p := NewCommandPublisher(missing+" publish", WithPublisherOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "wapm.toml"), false)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr), "Publish() error = %v", err)
	assert.Equal(t, -1, cmdErr.ExitCode, "want a start failure")
}

// TestPublishHelperProcess stands in for the registry CLI; it is not a real test.
func TestPublishHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprintln(os.Stdout, "published")
	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}
