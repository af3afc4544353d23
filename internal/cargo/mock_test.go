// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

type (
	// mockCommand records cargo invocations and answers them through
	// TestHelperProcess.
	mockCommand struct {
		invocations [][]string
		exitCode    int
		stdout      string
		stderr      string
	}
)

func (m *mockCommand) execFunc(t *testing.T) ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		m.invocations = append(m.invocations, append([]string{name}, args...))

		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", m.exitCode),
			"GO_HELPER_STDOUT=" + m.stdout,
			"GO_HELPER_STDERR=" + m.stderr,
		}
		return cmd
	}
}

func (m *mockCommand) lastArgs() []string {
	if len(m.invocations) == 0 {
		return nil
	}
	return m.invocations[len(m.invocations)-1]
}

// TestHelperProcess is invoked by mockCommand; it is not a real test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}
