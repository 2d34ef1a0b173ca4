package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facepoke/internal/renderer"
	"github.com/kozaktomas/facepoke/internal/session"
)

var fakeFrame = []byte("RIFF....WEBP")

// setupSessionManager starts a mock engine and returns a session manager
// wired to it plus one created session.
func setupSessionManager(t *testing.T) (*session.Manager, *session.Session) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/photos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"uuid":   "photo-1",
			"center": []float64{128, 128},
			"size":   200.0,
		})
	})
	mux.HandleFunc("POST /api/v1/photos/photo-1/transform", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		w.Write(fakeFrame)
	})
	mux.HandleFunc("POST /api/v1/photos/photo-1/restore", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("neutral"))
	})
	mux.HandleFunc("DELETE /api/v1/photos/photo-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := renderer.NewClient(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	manager := session.NewManager(client, nil, 0)
	t.Cleanup(manager.Close)

	sess, err := manager.Create(context.Background(), "portrait.jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}
	return manager, sess
}

// waitForPreview blocks until the session has a rendered frame.
func waitForPreview(t *testing.T, sess *session.Session) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, ok := sess.Preview(); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for a preview frame")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
