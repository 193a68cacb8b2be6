package claude

import (
	"bufio"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/galaxy-co-ai/wingman/event"
)

// maxLineBytes bounds a single protocol line. Tool results can carry
// whole files, so the default Scanner limit is far too small.
const maxLineBytes = 10 * 1024 * 1024

// streamOutput is the per-session read loop. It owns the stdout side
// of the process for the session's lifetime, then tears the registry
// entry down when the stream ends. Removal here can race an explicit
// Stop; both paths tolerate the entry already being gone, and the
// terminal stopped status is emitted from this loop alone so callers
// see it exactly once per session.
func (m *Manager) streamOutput(sessionID string, p *process) {
	m.consumeStream(sessionID, p.stdout)

	m.mu.Lock()
	if cur, ok := m.procs[sessionID]; ok && cur == p {
		delete(m.procs, sessionID)
	}
	m.mu.Unlock()

	p.kill()
	p.reap()

	m.emitStatus(sessionID, StatusStopped, nil)
	m.logger.Info("claude session ended", "session_id", sessionID)
}

// consumeStream decodes NDJSON lines from r until end of stream,
// maintaining the per-message accumulation state and forwarding
// payloads to the sink.
//
// Malformed lines are logged and skipped. An in-band error frame is
// forwarded as a recoverable error payload and leaves the stored
// status untouched; the next message_stop or send reconciles it.
func (m *Manager) consumeStream(sessionID string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	// Current message accumulation: reset on each assistant start.
	messageID := newMessageID()
	var text strings.Builder

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		ev, err := ParseLine(line)
		if err != nil {
			m.logger.Warn("failed to parse CLI output",
				"session_id", sessionID, "error", err, "line", string(line))
			continue
		}

		switch ev.Kind {
		case EventAssistantStart:
			messageID = ev.MessageID
			if messageID == "" {
				messageID = newMessageID()
			}
			text.Reset()

		case EventTextDelta:
			// Forward only the new fragment, in arrival order, so the
			// UI renders with minimal latency.
			text.WriteString(ev.Text)
			m.sink.Publish(event.ClaudeOutput, event.OutputPayload{
				SessionID: sessionID,
				MessageID: messageID,
				Chunk:     ev.Text,
			})

		case EventToolUse:
			m.logger.Debug("tool use",
				"session_id", sessionID, "tool", ev.ToolName, "input", string(ev.ToolInput))

		case EventToolResult:
			m.logger.Debug("tool result",
				"session_id", sessionID, "tool_use_id", ev.ToolUseID, "content", ev.ToolContent)

		case EventMessageStop:
			m.sink.Publish(event.ClaudeOutput, event.OutputPayload{
				SessionID:  sessionID,
				MessageID:  messageID,
				IsComplete: true,
			})
			m.emitStatus(sessionID, StatusReady, nil)
			m.setStatus(sessionID, StatusReady)

		case EventError:
			m.sink.Publish(event.ClaudeError, event.ErrorPayload{
				SessionID:   sessionID,
				Error:       ev.Message,
				Recoverable: true,
			})

		case EventIgnored:
		}
	}

	if err := scanner.Err(); err != nil {
		m.logger.Warn("CLI output stream error", "session_id", sessionID, "error", err)
	}
}

// newMessageID generates a local message id for assistant messages
// whose frames did not carry one.
func newMessageID() string {
	return "msg-" + uuid.NewString()
}
