package handlers

import (
	"net/http"

	"github.com/kozaktomas/facepoke/internal/session"
)

// PreviewHandler serves rendered frames.
type PreviewHandler struct {
	sessions *session.Manager
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(sessions *session.Manager) *PreviewHandler {
	return &PreviewHandler{sessions: sessions}
}

// Get returns the latest rendered frame as WebP. 204 when no frame has
// arrived yet; clients should show the original portrait. The ETag is the
// frame's perceptual fingerprint, so a poll that would receive a visually
// identical frame gets 304 instead of the pixels.
func (h *PreviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	frame, ok := sess.Preview()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if tag := sess.PreviewTag(); tag != "" {
		etag := `"` + tag + `"`
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(frame)
}
