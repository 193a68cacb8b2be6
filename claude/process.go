package claude

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/galaxy-co-ai/wingman/claudecontract"
)

// process supervises one claude CLI child with piped stdio. A process
// is owned by exactly one registry entry; kill is invoked on every
// removal path, so no child outlives its entry.
type process struct {
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdinC io.Closer
	stdout io.ReadCloser

	// status is guarded by the owning Manager's lock.
	status Status
}

// spawn starts the claude binary in non-interactive print mode with
// workdir as its working directory. All three standard streams are
// piped; stderr is drained into the logger so the child can never
// block on a full pipe.
func spawn(path, workdir string, logger *slog.Logger) (*process, error) {
	cmd := exec.Command(path, claudecontract.FlagPrint)
	cmd.Dir = workdir
	setSysProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn CLI: %w", err)
	}

	go drainStderr(stderr, logger)

	return &process{
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdin),
		stdinC: stdin,
		stdout: stdout,
		status: StatusStarting,
	}, nil
}

// writeLine writes s plus a line terminator to the child's stdin and
// flushes.
func (p *process) writeLine(s string) error {
	if p.stdin == nil {
		return ErrStdinUnavailable
	}
	if _, err := p.stdin.WriteString(s); err != nil {
		return err
	}
	if err := p.stdin.WriteByte('\n'); err != nil {
		return err
	}
	return p.stdin.Flush()
}

// pid returns the child's process id, or 0 when no process is
// attached.
func (p *process) pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// kill forcibly terminates the child and its process group. Safe to
// call repeatedly and on an already-dead process.
func (p *process) kill() {
	if p.stdinC != nil {
		_ = p.stdinC.Close()
	}
	if pid := p.pid(); pid != 0 {
		killGroup(pid)
	}
}

// reap waits for the child to exit so it does not linger as a zombie.
func (p *process) reap() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Wait()
	}
}

// drainStderr forwards the child's stderr lines to the logger.
func drainStderr(r io.Reader, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4*1024), 256*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			logger.Debug("claude CLI stderr", "line", line)
		}
	}
}
