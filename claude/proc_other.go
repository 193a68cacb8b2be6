//go:build !unix

package claude

import (
	"os"
	"os/exec"
)

func setSysProcAttr(cmd *exec.Cmd) {}

// killGroup kills the process itself; there is no process-group
// delivery off unix.
func killGroup(pid int) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = proc.Kill()
}

// interruptSupported reports whether this platform can deliver an
// interrupt signal to a running process. Off unix there is no
// reliable equivalent of SIGINT delivery to another process, so
// cancellation degrades to a no-op.
func interruptSupported() bool {
	return false
}

func sendInterrupt(pid int) bool {
	return false
}
