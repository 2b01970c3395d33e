package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/solohub/braind/internal/logging"
	"github.com/solohub/braind/internal/streaming"
)

// handleEvents streams the caller's pipeline events via Server-Sent Events.
// Optional query params narrow the stream: workflow_id and event_types
// (comma-separated).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := streaming.EventFilter{
		UserID:     logging.UserID(r.Context()),
		WorkflowID: r.URL.Query().Get("workflow_id"),
	}
	if v := r.URL.Query().Get("event_types"); v != "" {
		filter.EventTypes = strings.Split(v, ",")
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorMsg(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, cancel, err := s.deps.Hub.Subscribe(r.Context(), filter)
	if err != nil {
		s.deps.Logger.Error("SSE subscribe failed", "error", err)
		writeErrorMsg(w, http.StatusInternalServerError, "subscribe failed")
		return
	}
	defer cancel()

	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
			flusher.Flush()
		}
	}
}
