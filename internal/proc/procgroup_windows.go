//go:build windows

package proc

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup kills the immediate process. Windows has no POSIX
// process groups; descendants of short-lived git commands exit with their
// parent in practice.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
