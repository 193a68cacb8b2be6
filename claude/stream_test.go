package claude

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxy-co-ai/wingman/event"
)

func newStreamManager(rec *recorder) *Manager {
	return NewManager(rec, WithLogger(quietLogger()))
}

func TestConsumeStreamForwardsFragmentsInOrder(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"assistant","message":{"id":"msg_1"}}`,
		`{"type":"content_block_start","content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","delta":{"text":"The answer"}}`,
		`{"type":"content_block_delta","delta":{"text":" is"}}`,
		`{"type":"content_block_delta","delta":{"text":" 42."}}`,
		`{"type":"content_block_stop"}`,
		`{"type":"message_stop"}`,
	}, "\n") + "\n"

	rec := &recorder{}
	m := newStreamManager(rec)
	m.procs["s1"] = fakeProcess(nil)

	m.consumeStream("s1", strings.NewReader(stream))

	var concat strings.Builder
	outputs := rec.named(event.ClaudeOutput)
	require.Len(t, outputs, 4)
	for _, env := range outputs[:3] {
		payload := env.Payload.(event.OutputPayload)
		assert.Equal(t, "msg_1", payload.MessageID)
		assert.False(t, payload.IsComplete)
		concat.WriteString(payload.Chunk)
	}

	// The forwarded fragments, concatenated in receipt order, must
	// reproduce the full message text.
	assert.Equal(t, "The answer is 42.", concat.String())

	final := outputs[3].Payload.(event.OutputPayload)
	assert.True(t, final.IsComplete)
	assert.Empty(t, final.Chunk)
	assert.Equal(t, "msg_1", final.MessageID)

	assert.Equal(t, StatusReady, m.Status("s1"))
}

func TestConsumeStreamGeneratesMessageID(t *testing.T) {
	stream := `{"type":"assistant"}` + "\n" +
		`{"type":"content_block_delta","delta":{"text":"hi"}}` + "\n"

	rec := &recorder{}
	m := newStreamManager(rec)

	m.consumeStream("s1", strings.NewReader(stream))

	outputs := rec.named(event.ClaudeOutput)
	require.Len(t, outputs, 1)
	payload := outputs[0].Payload.(event.OutputPayload)
	assert.True(t, strings.HasPrefix(payload.MessageID, "msg-"))
}

func TestConsumeStreamResetsAccumulatorPerMessage(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"assistant","message":{"id":"msg_1"}}`,
		`{"type":"content_block_delta","delta":{"text":"first"}}`,
		`{"type":"message_stop"}`,
		`{"type":"assistant","message":{"id":"msg_2"}}`,
		`{"type":"content_block_delta","delta":{"text":"second"}}`,
		`{"type":"message_stop"}`,
	}, "\n") + "\n"

	rec := &recorder{}
	m := newStreamManager(rec)

	m.consumeStream("s1", strings.NewReader(stream))

	outputs := rec.named(event.ClaudeOutput)
	require.Len(t, outputs, 4)
	assert.Equal(t, "msg_1", outputs[0].Payload.(event.OutputPayload).MessageID)
	assert.Equal(t, "msg_2", outputs[2].Payload.(event.OutputPayload).MessageID)
	assert.Equal(t, "second", outputs[2].Payload.(event.OutputPayload).Chunk)
}

func TestConsumeStreamSkipsMalformedAndBlankLines(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"content_block_delta","delta":{"text":"before"}}`,
		``,
		`this is not json`,
		`{"type":"content_block_delta","delta":{"text":" after"}}`,
	}, "\n") + "\n"

	rec := &recorder{}
	m := newStreamManager(rec)

	m.consumeStream("s1", strings.NewReader(stream))

	outputs := rec.named(event.ClaudeOutput)
	require.Len(t, outputs, 2)
	assert.Equal(t, "before", outputs[0].Payload.(event.OutputPayload).Chunk)
	assert.Equal(t, " after", outputs[1].Payload.(event.OutputPayload).Chunk)
}

func TestConsumeStreamErrorFrameIsRecoverable(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"error","error":{"message":"Rate limited"}}`,
		`{"type":"content_block_delta","delta":{"text":"still going"}}`,
	}, "\n") + "\n"

	rec := &recorder{}
	m := newStreamManager(rec)
	m.procs["s1"] = fakeProcess(nil)
	m.procs["s1"].status = StatusBusy

	m.consumeStream("s1", strings.NewReader(stream))

	errs := rec.named(event.ClaudeError)
	require.Len(t, errs, 1)
	payload := errs[0].Payload.(event.ErrorPayload)
	assert.Equal(t, "Rate limited", payload.Error)
	assert.True(t, payload.Recoverable)

	// An error frame does not terminate the stream or touch status.
	assert.Len(t, rec.named(event.ClaudeOutput), 1)
	assert.Equal(t, StatusBusy, m.Status("s1"))
}

func TestConsumeStreamIgnoredFramesHaveNoEffect(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"ping"}`,
		`{"type":"message_start","message":{"id":"msg_1"}}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		`{"type":"something_new_from_a_future_cli"}`,
	}, "\n") + "\n"

	rec := &recorder{}
	m := newStreamManager(rec)

	m.consumeStream("s1", strings.NewReader(stream))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.events)
}

func TestStreamOutputRemovesSessionOnEOF(t *testing.T) {
	rec := &recorder{}
	m := newStreamManager(rec)

	p := fakeProcess(nil)
	p.stdout = io.NopCloser(strings.NewReader(`{"type":"message_stop"}` + "\n"))
	m.procs["s1"] = p

	m.streamOutput("s1", p)

	assert.False(t, m.IsRunning("s1"))
	assert.Equal(t, StatusStopped, m.Status("s1"))

	var stopped int
	for _, env := range rec.named(event.ClaudeStatus) {
		if env.Payload.(event.StatusPayload).Status == "stopped" {
			stopped++
		}
	}
	assert.Equal(t, 1, stopped)
}

func TestStreamOutputToleratesRacingStop(t *testing.T) {
	rec := &recorder{}
	m := newStreamManager(rec)

	p := fakeProcess(nil)
	p.stdout = io.NopCloser(strings.NewReader(""))
	m.procs["s1"] = p

	// Explicit stop wins the race; the loop's cleanup must cope with
	// the entry already being gone.
	require.NoError(t, m.Stop("s1"))
	m.streamOutput("s1", p)

	assert.False(t, m.IsRunning("s1"))
}

func TestStreamOutputDoesNotRemoveReplacementProcess(t *testing.T) {
	rec := &recorder{}
	m := newStreamManager(rec)

	old := fakeProcess(nil)
	old.stdout = io.NopCloser(strings.NewReader(""))

	// A newer process registered under the same id must survive the
	// old loop's teardown.
	replacement := fakeProcess(nil)
	m.procs["s1"] = replacement

	m.streamOutput("s1", old)

	assert.True(t, m.IsRunning("s1"))
	m.mu.RLock()
	assert.Same(t, replacement, m.procs["s1"])
	m.mu.RUnlock()
}
