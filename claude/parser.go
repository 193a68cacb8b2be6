package claude

import (
	"encoding/json"

	"github.com/galaxy-co-ai/wingman/claudecontract"
)

// frame is the raw envelope of one stream line: a string discriminant
// plus whatever payload the CLI attached. Payload fields stay raw so a
// field of an unexpected shape degrades to its documented default
// instead of failing the whole line.
type frame struct {
	Type      string          `json:"type"`
	Message   json.RawMessage `json:"message"`
	Delta     json.RawMessage `json:"delta"`
	Name      json.RawMessage `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID json.RawMessage `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	Error     json.RawMessage `json:"error"`
}

// ParseLine decodes a single NDJSON line from the claude CLI into an
// Event. Unknown frame types map to EventIgnored so newer CLI versions
// do not break the stream. A line that is not valid JSON returns a
// *ParseError.
func ParseLine(line []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(line, &f); err != nil {
		return Event{}, &ParseError{Line: string(line), Err: err}
	}

	switch f.Type {
	case claudecontract.EventAssistant:
		// Start of an assistant message. The id lives on the nested
		// message object and may be absent.
		id, _ := nestedString(f.Message, "id")
		return Event{Kind: EventAssistantStart, MessageID: id}, nil

	case claudecontract.EventContentBlockDelta:
		if text, ok := nestedString(f.Delta, "text"); ok {
			return Event{Kind: EventTextDelta, Text: text}, nil
		}
		// Delta without a text field (e.g. input_json_delta).
		return Event{Kind: EventIgnored}, nil

	case claudecontract.EventToolUse:
		name, ok := asString(f.Name)
		if !ok {
			name = "unknown"
		}
		return Event{Kind: EventToolUse, ToolName: name, ToolInput: f.Input}, nil

	case claudecontract.EventToolResult:
		id, _ := asString(f.ToolUseID)
		content, _ := asString(f.Content)
		return Event{Kind: EventToolResult, ToolUseID: id, ToolContent: content}, nil

	case claudecontract.EventMessageStop:
		return Event{Kind: EventMessageStop}, nil

	case claudecontract.EventError:
		msg, ok := nestedString(f.Error, "message")
		if !ok {
			msg = "Unknown error"
		}
		return Event{Kind: EventError, Message: msg}, nil

	case claudecontract.EventContentBlockStart,
		claudecontract.EventContentBlockStop,
		claudecontract.EventMessageStart,
		claudecontract.EventMessageDelta,
		claudecontract.EventPing:
		return Event{Kind: EventIgnored}, nil

	default:
		return Event{Kind: EventIgnored}, nil
	}
}

// asString decodes raw as a JSON string, reporting false for a
// missing or non-string value.
func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// nestedString extracts object[key] as a string, reporting false when
// raw is not an object or the key is missing or non-string.
func nestedString(raw json.RawMessage, key string) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	return asString(obj[key])
}
