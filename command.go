package docxtpl

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/alnah/go-docxtpl/internal/process"
)

// DefaultWaitDelay bounds how long a killed converter may keep its output
// pipes open before Wait gives up on them.
const DefaultWaitDelay = 5 * time.Second

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
// The command runs in its own process group, which is killed as a whole
// when ctx ends.
type ExecRunner struct {
	WaitDelay time.Duration
}

// Run executes name and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.Isolate(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
