package claudecontract

// Output formats accepted by FlagOutputFormat.
const (
	// FormatText is plain text output (default).
	FormatText = "text"

	// FormatJSON is a single structured JSON response.
	FormatJSON = "json"

	// FormatStreamJSON is newline-delimited JSON for streaming.
	FormatStreamJSON = "stream-json"
)

// Stream event discriminants: the value of the "type" field on each
// NDJSON line the CLI writes in print mode. Frames with any other
// discriminant must be ignored, not rejected, so newer CLI versions
// keep working.
const (
	EventAssistant         = "assistant"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageStart      = "message_start"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
	EventToolUse           = "tool_use"
	EventToolResult        = "tool_result"
	EventError             = "error"
	EventPing              = "ping"
)
