package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/facepoke/internal/session"
)

// EventsHandler streams session events over SSE.
type EventsHandler struct {
	sessions *session.Manager
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(sessions *session.Manager) *EventsHandler {
	return &EventsHandler{sessions: sessions}
}

// Stream sends session events until the client disconnects or the session
// closes. The first event is always a state summary so late subscribers can
// catch up.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := sess.AddListener()
	defer sess.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", map[string]any{
		"id":    sess.ID,
		"edits": len(sess.State()),
	})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				// Session closed.
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
