package claude

import (
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/galaxy-co-ai/wingman/event"
)

// Manager is the registry of active CLI sessions and the control
// surface the command layer talks to. It maps session ids to
// supervised processes; status reads take a shared lock while
// start/stop/send mutations are exclusive.
//
// Manager is safe for concurrent use.
type Manager struct {
	claudePath string
	logger     *slog.Logger
	sink       event.Sink

	mu    sync.RWMutex
	procs map[string]*process
}

// Option configures a Manager.
type Option func(*Manager)

// WithClaudePath overrides the binary name resolved on PATH. The
// default is "claude".
func WithClaudePath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.claudePath = path
		}
	}
}

// WithLogger sets the logger for stream diagnostics. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager that forwards events to sink.
// A nil sink discards all events.
func NewManager(sink event.Sink, opts ...Option) *Manager {
	if sink == nil {
		sink = event.Discard
	}
	m := &Manager{
		claudePath: "claude",
		logger:     slog.Default(),
		sink:       sink,
		procs:      make(map[string]*process),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start spawns a CLI process for the session and begins streaming its
// output. Idempotent: if the session already has a process, Start
// returns nil without spawning another.
//
// resumeContext, when non-empty, is written once to the fresh
// process's stdin to prime it with prior conversation history.
func (m *Manager) Start(sessionID, workingDir, resumeContext string) error {
	m.mu.RLock()
	_, exists := m.procs[sessionID]
	m.mu.RUnlock()
	if exists {
		return nil
	}

	m.emitStatus(sessionID, StatusStarting, nil)

	path, err := exec.LookPath(m.claudePath)
	if err != nil {
		return newError(CodeCLINotFound, "start", sessionID, ErrCLINotFound)
	}

	p, err := spawn(path, workingDir, m.logger)
	if err != nil {
		return newError(CodeSpawnFailure, "start", sessionID, err)
	}

	if resumeContext != "" {
		if err := p.writeLine(resumeContext); err != nil {
			p.kill()
			p.reap()
			return newError(CodeWriteFailure, "start", sessionID,
				fmt.Errorf("write resume context: %w", err))
		}
	}

	m.mu.Lock()
	if _, exists := m.procs[sessionID]; exists {
		// Lost a start race; the registered process wins.
		m.mu.Unlock()
		p.kill()
		p.reap()
		return nil
	}
	p.status = StatusReady
	m.procs[sessionID] = p
	m.mu.Unlock()

	m.emitStatus(sessionID, StatusReady, nil)
	m.logger.Info("claude session started", "session_id", sessionID, "workdir", workingDir, "pid", p.pid())

	go m.streamOutput(sessionID, p)
	return nil
}

// Stop removes the session's registry entry and forcibly terminates
// its process. A no-op when the session is absent; safe to call
// concurrently with the stream loop's own cleanup.
func (m *Manager) Stop(sessionID string) error {
	m.mu.Lock()
	p, ok := m.procs[sessionID]
	if ok {
		delete(m.procs, sessionID)
	}
	m.mu.Unlock()

	if ok {
		p.kill()
		m.logger.Info("claude session stopped", "session_id", sessionID)
	}
	return nil
}

// SendMessage writes content plus a line terminator to the session's
// stdin and marks the session busy. The write and the status update
// happen under one exclusive critical section so concurrent senders
// are serialized.
func (m *Manager) SendMessage(sessionID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.procs[sessionID]
	if !ok {
		return newError(CodeProcessNotRunning, "send", sessionID, ErrProcessNotRunning)
	}
	if err := p.writeLine(content); err != nil {
		return newError(CodeWriteFailure, "send", sessionID, err)
	}
	p.status = StatusBusy
	return nil
}

// Cancel asks the session's process to interrupt its in-flight
// response. Delivery is advisory: Cancel never fails the caller, even
// when the signal could not be delivered or the session is absent.
func (m *Manager) Cancel(sessionID string) error {
	m.mu.RLock()
	p, ok := m.procs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	pid := p.pid()
	if pid == 0 {
		return nil
	}
	if !interruptSupported() {
		m.logger.Warn("cancellation not supported on this platform", "session_id", sessionID)
		return nil
	}
	if !sendInterrupt(pid) {
		m.logger.Warn("cancellation signal not delivered", "session_id", sessionID, "pid", pid)
	}
	return nil
}

// Status returns the session's current status, or StatusStopped when
// the session has no registry entry.
func (m *Manager) Status(sessionID string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.procs[sessionID]; ok {
		return p.status
	}
	return StatusStopped
}

// IsRunning reports whether the session has an active CLI process.
func (m *Manager) IsRunning(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.procs[sessionID]
	return ok
}

// Sessions returns the ids of all sessions with an active process.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.procs))
	for id := range m.procs {
		ids = append(ids, id)
	}
	return ids
}

// StopAll terminates every active session. Used at daemon shutdown.
func (m *Manager) StopAll() {
	for _, id := range m.Sessions() {
		_ = m.Stop(id)
	}
}

// setStatus updates the stored status of an active session. Absent
// sessions are left alone: their status is implicitly stopped.
func (m *Manager) setStatus(sessionID string, status Status) {
	m.mu.Lock()
	if p, ok := m.procs[sessionID]; ok {
		p.status = status
	}
	m.mu.Unlock()
}

func (m *Manager) emitStatus(sessionID string, status Status, errMsg *string) {
	m.sink.Publish(event.ClaudeStatus, event.StatusPayload{
		SessionID: sessionID,
		Status:    string(status),
		Error:     errMsg,
	})
}
