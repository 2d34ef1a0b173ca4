package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facepoke/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	sessionsHandler := handlers.NewSessionsHandler(s.sessions)
	editsHandler := handlers.NewEditsHandler(s.sessions, s.emotions)
	previewHandler := handlers.NewPreviewHandler(s.sessions)
	eventsHandler := handlers.NewEventsHandler(s.sessions)
	historyHandler := handlers.NewHistoryHandler(s.sessions, s.history)
	suggestHandler := handlers.NewSuggestHandler(s.config, s.sessions, nil)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Catalogs
		r.Get("/landmarks", handlers.ListLandmarks)
		r.Get("/presets", handlers.ListPresets)
		r.Get("/presets/{name}", handlers.GetPreset)

		// Sessions
		r.Post("/sessions", sessionsHandler.Create)
		r.Get("/sessions/{id}", sessionsHandler.Get)
		r.Get("/sessions/{id}/hit", sessionsHandler.Hit)
		r.Delete("/sessions/{id}", sessionsHandler.Delete)

		// Composition
		r.Post("/sessions/{id}/edits", editsHandler.Apply)
		r.Post("/sessions/{id}/presets/{name}", editsHandler.ActivatePreset)
		r.Post("/sessions/{id}/reset", editsHandler.Reset)
		r.Get("/sessions/{id}/state", editsHandler.State)
		r.Get("/sessions/{id}/emotion", editsHandler.Emotion)

		// Rendering
		r.Get("/sessions/{id}/preview", previewHandler.Get)
		r.Get("/sessions/{id}/events", eventsHandler.Stream)

		// History
		r.Get("/sessions/{id}/history", historyHandler.List)
		r.Get("/sessions/{id}/similar", historyHandler.Similar)

		// AI suggestions
		r.Post("/sessions/{id}/suggest", suggestHandler.Suggest)
	})

	// Landing page for anyone poking the service root.
	s.router.Get("/", s.serveIndex)
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>FacePoke</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
        code { background: #2a2a3e; padding: 2px 8px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>FacePoke</h1>
        <p>Portrait expression editing service.</p>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
