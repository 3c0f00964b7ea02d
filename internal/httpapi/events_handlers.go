package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"alumni-engine/internal/events"
)

const sseKeepAlive = 25 * time.Second

// EventsHandler streams batch lifecycle events. A client that connects
// mid-batch first receives a batch_status snapshot.
type EventsHandler struct {
	Hub   *events.Hub
	Batch BatchRunner
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}
	if h.Hub == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "events_unavailable", "event hub is not configured")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	reqID := RequestIDFrom(r.Context())
	send := func(msg string) {
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
		flusher.Flush()
	}
	send(events.MakeEvent(reqID, "ping", 1, nil))
	if h.Batch != nil {
		send(events.MakeEvent(reqID, events.TypeBatchStatus, 1, h.Batch.Status()))
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			send(msg)
		}
	}
}
