package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/kozaktomas/facepoke/internal/ai"
	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/session"
)

// ProviderFactory creates an AI provider by name. Injected so tests can
// supply a fake.
type ProviderFactory func(ctx context.Context, cfg *config.Config, name string) (ai.Provider, error)

// SuggestHandler asks an AI model to propose an expression for the portrait.
type SuggestHandler struct {
	config      *config.Config
	sessions    *session.Manager
	newProvider ProviderFactory
}

// NewSuggestHandler creates a new suggest handler.
func NewSuggestHandler(cfg *config.Config, sessions *session.Manager, factory ProviderFactory) *SuggestHandler {
	if factory == nil {
		factory = ai.NewProvider
	}
	return &SuggestHandler{config: cfg, sessions: sessions, newProvider: factory}
}

type suggestRequest struct {
	Mood     string `json:"mood"`
	Provider string `json:"provider"`
	Apply    bool   `json:"apply"`
}

// Suggest runs the AI suggestion and optionally applies it to the session
// as per-group edits.
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	sess := getSession(w, r, h.sessions)
	if sess == nil {
		return
	}

	var req suggestRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}

	provider, err := h.newProvider(r.Context(), h.config, req.Provider)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	suggestion, err := provider.SuggestExpression(r.Context(), sess.Portrait, req.Mood)
	if err != nil {
		log.Printf("suggest expression for %s: %v", sess.ID, err)
		respondError(w, http.StatusBadGateway, "suggestion failed")
		return
	}

	response := map[string]any{
		"provider":   provider.Name(),
		"suggestion": suggestion,
	}

	if req.Apply && len(suggestion.Params) > 0 {
		edits, err := applySuggestion(sess, suggestion)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		response["edits"] = edits
	}

	respondJSON(w, http.StatusOK, response)
}

// applySuggestion turns the flat suggested params into one edit per landmark
// group and commits them in catalog order.
func applySuggestion(sess *session.Session, s *ai.Suggestion) ([]expression.Edit, error) {
	flat := make(expression.Params, len(s.Params))
	for name, value := range s.Params {
		flat[landmark.Param(name)] = value
	}
	split := expression.SplitParams(flat)

	var edits []expression.Edit
	for _, g := range landmark.Groups() {
		params, ok := split[g]
		if !ok {
			continue
		}
		edit, err := sess.ApplyEdit(g, expression.Vector{}, params, expression.ModePrimary)
		if err != nil {
			return edits, err
		}
		edits = append(edits, edit)
	}
	return edits, nil
}
