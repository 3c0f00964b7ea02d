package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeItemProcessed, 1, ItemProcessed{JobID: "j", Name: "Asha Rao", OK: true, Processed: 1, Total: 2})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeItemProcessed, e.Type)
	assert.Equal(t, "req-1", e.RequestID)

	var data ItemProcessed
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "Asha Rao", data.Name)
	assert.True(t, data.OK)
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	for i := 0; i < 100; i++ {
		h.Publish("x")
	}
	assert.Len(t, ch, cap(ch))

	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	assert.Zero(t, h.Subscribers())

	_, open := <-drain(ch)
	assert.False(t, open)
}

func drain(ch chan string) chan string {
	for len(ch) > 0 {
		<-ch
	}
	return ch
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish("x") })
}
