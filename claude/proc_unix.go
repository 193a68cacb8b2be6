//go:build unix

package claude

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr places the child in its own process group so kill
// and cancel reach the CLI and anything it spawned (MCP servers,
// browsers).
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup delivers SIGKILL to the whole process group.
func killGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// interruptSupported reports whether this platform can deliver an
// interrupt signal to a running process.
func interruptSupported() bool {
	return true
}

// sendInterrupt delivers SIGINT to the process, reporting whether the
// signal was actually sent.
func sendInterrupt(pid int) bool {
	return syscall.Kill(pid, syscall.SIGINT) == nil
}
