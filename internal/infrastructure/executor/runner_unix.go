//go:build unix

package executor

import (
	"os/exec"
	"syscall"
	"time"
)

// setProcessGroup puts the child in its own process group and arranges
// for cancellation to kill the whole group, so shell children (pipes,
// subshells) die with their parent instead of running unobserved.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second
}
