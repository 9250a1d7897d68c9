//go:build !unix

package executor

import "os/exec"

// setProcessGroup is a no-op on platforms without POSIX process
// groups; exec.CommandContext's default kill applies.
func setProcessGroup(cmd *exec.Cmd) {}
