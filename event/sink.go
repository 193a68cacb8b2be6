// Package event defines the payloads the Wingman backend emits toward
// the notification layer, and a best-effort bus for carrying them.
//
// Delivery is advisory: a Sink must never block its caller, and a full
// or absent consumer drops events rather than stalling the producing
// stream loop.
package event

// Event names shared with the frontend EVENTS constant.
const (
	ClaudeOutput = "claude_output"
	ClaudeStatus = "claude_status"
	ClaudeError  = "claude_error"
	FileChanged  = "file_changed"
	SessionSaved = "session_saved"
)

// Sink accepts emitted events. Implementations must return without
// blocking regardless of consumer state.
type Sink interface {
	Publish(name string, payload any)
}

// OutputPayload carries one streamed chunk of assistant output.
// An empty Chunk with IsComplete set marks the end of a message.
type OutputPayload struct {
	SessionID  string `json:"sessionId"`
	MessageID  string `json:"messageId"`
	Chunk      string `json:"chunk"`
	IsComplete bool   `json:"isComplete"`
}

// StatusPayload reports a session status transition.
type StatusPayload struct {
	SessionID string  `json:"sessionId"`
	Status    string  `json:"status"`
	Error     *string `json:"error,omitempty"`
}

// ErrorPayload reports a recoverable error surfaced by a session's
// output stream.
type ErrorPayload struct {
	SessionID   string `json:"sessionId"`
	Error       string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

// FileChangedPayload reports a file change inside a session's working
// directory. Source is "claude" when the change is attributed to the
// CLI, "external" otherwise.
type FileChangedPayload struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Operation string `json:"operation"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// SessionSavedPayload announces that a completed assistant message was
// persisted for a session.
type SessionSavedPayload struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
}

// Discard is a Sink that drops every event. Useful as a default when
// no notification layer is attached.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(string, any) {}
