package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishDelivers(t *testing.T) {
	bus := NewBus(4)
	bus.Publish(ClaudeOutput, OutputPayload{SessionID: "s1", Chunk: "hi"})

	env := <-bus.Events()
	require.Equal(t, ClaudeOutput, env.Name)

	payload, ok := env.Payload.(OutputPayload)
	require.True(t, ok)
	assert.Equal(t, "s1", payload.SessionID)
	assert.Equal(t, "hi", payload.Chunk)
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus(2)

	// No consumer: publishing far past the buffer must not block.
	for i := 0; i < 100; i++ {
		bus.Publish(ClaudeStatus, StatusPayload{SessionID: "s1", Status: "ready"})
	}

	// The buffer still holds the most recent events.
	assert.Len(t, bus.ch, 2)
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	bus := NewBus(2)
	bus.Publish(ClaudeOutput, OutputPayload{Chunk: "a"})
	bus.Publish(ClaudeOutput, OutputPayload{Chunk: "b"})
	bus.Publish(ClaudeOutput, OutputPayload{Chunk: "c"})

	first := <-bus.Events()
	second := <-bus.Events()

	assert.Equal(t, "b", first.Payload.(OutputPayload).Chunk)
	assert.Equal(t, "c", second.Payload.(OutputPayload).Chunk)
}

func TestBusDefaultBuffer(t *testing.T) {
	bus := NewBus(0)
	assert.Equal(t, DefaultBuffer, cap(bus.ch))
}

func TestBusCloseEndsRange(t *testing.T) {
	bus := NewBus(4)
	bus.Publish(SessionSaved, SessionSavedPayload{SessionID: "s1"})
	bus.Close()

	var got int
	for range bus.Events() {
		got++
	}
	assert.Equal(t, 1, got)
}
