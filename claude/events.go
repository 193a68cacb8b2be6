package claude

import "encoding/json"

// Status represents the lifecycle state of a session's CLI process.
// A session absent from the registry is StatusStopped.
type Status string

// Session status constants. The string values are what the frontend
// receives in status payloads.
const (
	StatusStarting Status = "starting"
	StatusReady    Status = "ready"
	StatusBusy     Status = "busy"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// EventKind identifies which Event variant a decoded frame produced.
type EventKind int

const (
	// EventIgnored is the catch-all for frames that are recognized but
	// uninteresting, and for unknown frame types.
	EventIgnored EventKind = iota

	// EventAssistantStart marks the start of an assistant message.
	EventAssistantStart

	// EventTextDelta carries one streamed text fragment.
	EventTextDelta

	// EventToolUse reports a tool invocation by the assistant.
	EventToolUse

	// EventToolResult reports the result of a tool invocation.
	EventToolResult

	// EventMessageStop marks the end of the current message.
	EventMessageStop

	// EventError carries an error reported in-band by the CLI.
	EventError
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAssistantStart:
		return "assistant_start"
	case EventTextDelta:
		return "text_delta"
	case EventToolUse:
		return "tool_use"
	case EventToolResult:
		return "tool_result"
	case EventMessageStop:
		return "message_stop"
	case EventError:
		return "error"
	default:
		return "ignored"
	}
}

// Event is one decoded protocol frame. Check Kind to determine which
// fields are populated.
type Event struct {
	Kind EventKind

	// MessageID is set for EventAssistantStart when the frame carried
	// a message id. Empty means the stream loop generates one locally.
	MessageID string

	// Text is set for EventTextDelta.
	Text string

	// ToolName and ToolInput are set for EventToolUse. ToolInput is
	// nil when the frame carried no input.
	ToolName  string
	ToolInput json.RawMessage

	// ToolUseID and ToolContent are set for EventToolResult.
	ToolUseID   string
	ToolContent string

	// Message is set for EventError.
	Message string
}
