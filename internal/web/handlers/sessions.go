package handlers

import (
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/kozaktomas/facepoke/internal/constants"
	"github.com/kozaktomas/facepoke/internal/hittest"
	"github.com/kozaktomas/facepoke/internal/session"
)

// SessionsHandler handles session lifecycle endpoints.
type SessionsHandler struct {
	sessions *session.Manager
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(sessions *session.Manager) *SessionsHandler {
	return &SessionsHandler{sessions: sessions}
}

// sessionInfo is the API view of a session.
type sessionInfo struct {
	ID    string `json:"id"`
	Photo any    `json:"photo"`
	Edits int    `json:"edits"`
}

func describeSession(s *session.Session) sessionInfo {
	return sessionInfo{
		ID:    s.ID,
		Photo: s.Photo,
		Edits: len(s.State()),
	}
}

// Create uploads a portrait and opens an editing session over it.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	filename := filepath.Base(header.Filename)
	sess, err := h.sessions.Create(r.Context(), filename, data)
	if err != nil {
		log.Printf("create session for %s: %v", sanitizeForLog(filename), err)
		respondError(w, http.StatusBadGateway, "failed to upload portrait to engine")
		return
	}

	respondJSON(w, http.StatusCreated, describeSession(sess))
}

// Get returns the session description.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}
	respondJSON(w, http.StatusOK, describeSession(sess))
}

// Hit maps a pointer position on the portrait to the landmark group under
// it, so a client can know which region a drag would edit before starting
// one.
func (h *SessionsHandler) Hit(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		respondError(w, http.StatusBadRequest, "x and y query parameters are required")
		return
	}

	group := hittest.Locate(&sess.Photo, x, y)
	respondJSON(w, http.StatusOK, map[string]any{"group": group})
}

// Delete closes the session and drops its history.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	h.sessions.Delete(sess.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
