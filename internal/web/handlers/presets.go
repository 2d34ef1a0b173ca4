package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facepoke/internal/preset"
)

// ListPresets returns the emotion preset catalog.
func ListPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"presets": preset.All()})
}

// GetPreset returns one preset by name, tolerating case and diacritics.
func GetPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing preset name")
		return
	}

	p, ok := preset.Lookup(name)
	if !ok {
		respondError(w, http.StatusNotFound, "preset not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}
