package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facepoke/internal/constants"
	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/preset"
	"github.com/kozaktomas/facepoke/internal/session"
)

// EditsHandler handles edit composition endpoints.
type EditsHandler struct {
	sessions *session.Manager
	emotions *preset.EmotionIndex
}

// NewEditsHandler creates a new edits handler.
func NewEditsHandler(sessions *session.Manager, emotions *preset.EmotionIndex) *EditsHandler {
	return &EditsHandler{sessions: sessions, emotions: emotions}
}

// editRequest is the wire form of an incoming edit.
type editRequest struct {
	Group  landmark.Group     `json:"group"`
	Vector expression.Vector  `json:"vector"`
	Params map[string]float64 `json:"params"`
	Mode   string             `json:"mode"`
}

func (req editRequest) params() expression.Params {
	if req.Params == nil {
		return nil
	}
	p := make(expression.Params, len(req.Params))
	for name, value := range req.Params {
		p[landmark.Param(name)] = value
	}
	return p
}

// Apply normalizes and commits one edit.
func (h *EditsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Group == "" {
		respondError(w, http.StatusBadRequest, "group is required")
		return
	}

	edit, err := sess.ApplyEdit(req.Group, req.Vector, req.params(), expression.Mode(req.Mode))
	if err != nil {
		switch {
		case errors.Is(err, landmark.ErrUnknownGroup):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, session.ErrSessionClosed):
			respondError(w, http.StatusGone, "session closed")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, edit)
}

// ActivatePreset applies a named preset as its ordered edit sequence.
func (h *EditsHandler) ActivatePreset(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing preset name")
		return
	}

	edits, err := sess.ActivatePreset(name)
	if err != nil {
		if errors.Is(err, session.ErrUnknownPreset) {
			respondError(w, http.StatusNotFound, "preset not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"edits": edits})
}

// Reset returns the session to the neutral portrait.
func (h *EditsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	if err := sess.Reset(); err != nil {
		respondError(w, http.StatusGone, "session closed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// State returns the active edits and the accumulated engine controls.
func (h *EditsHandler) State(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"edits":       sess.State(),
		"accumulated": sess.Accumulate(),
	})
}

// Emotion names the catalog presets the current expression resembles.
func (h *EditsHandler) Emotion(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	limit := constants.DefaultEmotionMatches
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	matches, err := h.emotions.Nearest(sess.Accumulate(), limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "expression is empty")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"matches": matches})
}
