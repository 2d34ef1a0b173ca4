package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/facepoke/internal/constants"
	"github.com/kozaktomas/facepoke/internal/database"
	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/session"
)

// HistoryHandler serves the persisted edit history. All endpoints return
// 503 when no database is configured.
type HistoryHandler struct {
	sessions *session.Manager
	history  database.HistoryReader
}

// NewHistoryHandler creates a new history handler. A nil reader means
// history is disabled.
func NewHistoryHandler(sessions *session.Manager, history database.HistoryReader) *HistoryHandler {
	return &HistoryHandler{sessions: sessions, history: history}
}

func (h *HistoryHandler) available(w http.ResponseWriter) bool {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "edit history is not configured")
		return false
	}
	return true
}

func limitParam(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// List returns the session's persisted edits in application order.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	edits, err := h.history.ListEdits(r.Context(), sess.ID, limitParam(r, constants.DefaultHistoryLimit))
	if err != nil {
		log.Printf("list edit history for %s: %v", sess.ID, err)
		respondError(w, http.StatusInternalServerError, "failed to load edit history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"edits": edits})
}

// Similar finds past expressions resembling the session's current one.
func (h *HistoryHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	acc := sess.Accumulate()
	if len(acc) == 0 {
		respondError(w, http.StatusBadRequest, "expression is empty")
		return
	}

	snapshots, err := h.history.FindSimilarExpressions(r.Context(),
		expression.ParamVector(acc), limitParam(r, constants.DefaultSimilarLimit))
	if err != nil {
		log.Printf("find similar expressions for %s: %v", sess.ID, err)
		respondError(w, http.StatusInternalServerError, "failed to search expressions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}
