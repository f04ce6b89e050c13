package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"media-browser/internal/logging"
)

// keepaliveInterval is how often an idle event stream emits a comment line
// so intermediaries do not drop the connection.
const keepaliveInterval = 30 * time.Second

// EventStream streams thumbnail completion events over Server-Sent Events.
// Each event is one JSON object; clients use it to refresh thumbnails
// without polling.
func (h *Handlers) EventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Announce the stream immediately so clients know they are connected.
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	sub := h.bus.Subscribe()
	defer sub.Close()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logging.Error("Failed to marshal event: %v", err)
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
