package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/renderer"
)

var fakeFrame = []byte("RIFF....WEBP")

// mockEngine is a scripted engine backend: it records transform wire
// messages in arrival order and lets tests fail or delay individual calls.
type mockEngine struct {
	mu         sync.Mutex
	transforms []renderer.TransformRequest
	restores   int
	failCall   int // 1-based index of the transform call to reject, 0 for none
	block      chan struct{}
}

func (m *mockEngine) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/photos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"uuid":   "photo-1",
			"center": []float64{128, 128},
			"size":   200.0,
		})
	})
	mux.HandleFunc("POST /api/v1/photos/photo-1/transform", func(w http.ResponseWriter, r *http.Request) {
		var req renderer.TransformRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.transforms = append(m.transforms, req)
		n := len(m.transforms)
		block := m.block
		m.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-r.Context().Done():
				return
			}
		}
		if m.failCall != 0 && n == m.failCall {
			http.Error(w, "engine rejected edit", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/webp")
		w.Write(fakeFrame)
	})
	mux.HandleFunc("POST /api/v1/photos/photo-1/restore", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.restores++
		m.mu.Unlock()
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("neutral"))
	})
	mux.HandleFunc("DELETE /api/v1/photos/photo-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (m *mockEngine) transformGroups() []landmark.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	groups := make([]landmark.Group, len(m.transforms))
	for i, req := range m.transforms {
		groups[i] = req.Group
	}
	return groups
}

func setupSession(t *testing.T, engine *mockEngine) (*Manager, *Session) {
	t.Helper()

	server := httptest.NewServer(engine.handler())
	t.Cleanup(server.Close)

	client, err := renderer.NewClient(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	manager := NewManager(client, nil, 0)
	t.Cleanup(manager.Close)

	sess, err := manager.Create(context.Background(), "portrait.jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return manager, sess
}

// waitEvent blocks until an event of the wanted type arrives.
func waitEvent(t *testing.T, ch chan Event, eventType string) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %q", eventType)
			}
			if e.Type == eventType {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", eventType)
		}
	}
}

func TestApplyEditCommitsAndRenders(t *testing.T) {
	engine := &mockEngine{}
	_, sess := setupSession(t, engine)

	events := sess.AddListener()
	defer sess.RemoveListener(events)

	edit, err := sess.ApplyEdit(landmark.Lips, expression.Vector{X: 0.41, Y: 0.21}, nil, expression.ModePrimary)
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if edit.Params[landmark.ParamAAA] == 0 {
		t.Error("expected derived aaa param for a lips drag")
	}

	waitEvent(t, events, EventPreview)

	frame, ok := sess.Preview()
	if !ok {
		t.Fatal("expected a preview frame")
	}
	if string(frame) != string(fakeFrame) {
		t.Errorf("unexpected frame: %q", frame)
	}
	if len(sess.State()) != 1 {
		t.Errorf("expected 1 active edit, got %d", len(sess.State()))
	}
}

func TestApplyEditRejectsUnknownGroup(t *testing.T) {
	engine := &mockEngine{}
	_, sess := setupSession(t, engine)

	_, err := sess.ApplyEdit("chin", expression.Vector{X: 0.1}, nil, expression.ModePrimary)
	if !errors.Is(err, landmark.ErrUnknownGroup) {
		t.Errorf("expected ErrUnknownGroup, got %v", err)
	}
	if len(sess.State()) != 0 {
		t.Error("rejected edit must not touch the state")
	}
}

func TestPresetDispatchesOrderedMessages(t *testing.T) {
	engine := &mockEngine{}
	_, sess := setupSession(t, engine)

	events := sess.AddListener()
	defer sess.RemoveListener(events)

	edits, err := sess.ActivatePreset("Happy")
	if err != nil {
		t.Fatalf("ActivatePreset: %v", err)
	}
	if len(edits) != 6 {
		t.Fatalf("expected 6 committed edits, got %d", len(edits))
	}

	// One frame per edit, in declaration order.
	for range edits {
		waitEvent(t, events, EventPreview)
	}

	want := []landmark.Group{
		landmark.Background,
		landmark.LeftEyebrow,
		landmark.RightEyebrow,
		landmark.LeftEye,
		landmark.RightEye,
		landmark.Lips,
	}
	got := engine.transformGroups()
	if len(got) != len(want) {
		t.Fatalf("expected %d dispatches, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatch %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestActivateUnknownPreset(t *testing.T) {
	engine := &mockEngine{}
	_, sess := setupSession(t, engine)

	if _, err := sess.ActivatePreset("melancholy"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestDispatchFailureKeepsLocalState(t *testing.T) {
	engine := &mockEngine{failCall: 2}
	_, sess := setupSession(t, engine)

	events := sess.AddListener()
	defer sess.RemoveListener(events)

	groups := []landmark.Group{landmark.Lips, landmark.LeftEyebrow, landmark.LeftEye}
	for _, g := range groups {
		if _, err := sess.ApplyEdit(g, expression.Vector{X: 0.2, Y: 0.1}, nil, expression.ModePrimary); err != nil {
			t.Fatalf("ApplyEdit(%s): %v", g, err)
		}
	}

	waitEvent(t, events, EventDispatchFailed)
	// The queue keeps draining past the failure.
	waitEvent(t, events, EventPreview)

	if got := engine.transformGroups(); len(got) != 3 {
		t.Errorf("expected all 3 edits dispatched, got %d", len(got))
	}
	// All three edits stay committed, including the one the engine rejected.
	if len(sess.State()) != 3 {
		t.Errorf("expected 3 active edits, got %d", len(sess.State()))
	}
}

func TestLastWriteWinsPerGroup(t *testing.T) {
	engine := &mockEngine{}
	_, sess := setupSession(t, engine)

	if _, err := sess.ApplyEdit(landmark.Lips, expression.Vector{X: 0.41, Y: 0.21}, nil, expression.ModePrimary); err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if _, err := sess.ApplyEdit(landmark.Lips, expression.Vector{}, nil, expression.ModePrimary); err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}

	state := sess.State()
	if len(state) != 1 {
		t.Fatalf("expected 1 active edit, got %d", len(state))
	}
	if state[0].Distance != 0 || len(state[0].Params) != 0 {
		t.Errorf("second edit should have replaced the first: %+v", state[0])
	}
}

func TestResetClearsStateAndPreview(t *testing.T) {
	engine := &mockEngine{}
	_, sess := setupSession(t, engine)

	events := sess.AddListener()
	defer sess.RemoveListener(events)

	if _, err := sess.ApplyEdit(landmark.Lips, expression.Vector{X: 0.41, Y: 0.21}, nil, expression.ModePrimary); err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	waitEvent(t, events, EventPreview)

	if err := sess.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if len(sess.State()) != 0 {
		t.Error("reset must clear the expression state")
	}
	if _, ok := sess.Preview(); ok {
		t.Error("reset must clear the preview immediately")
	}

	// The queued restore delivers the neutral portrait.
	waitEvent(t, events, EventPreview)
	frame, ok := sess.Preview()
	if !ok || string(frame) != "neutral" {
		t.Errorf("expected the neutral frame after restore, got %q (ok=%v)", frame, ok)
	}

	engine.mu.Lock()
	restores := engine.restores
	engine.mu.Unlock()
	if restores != 1 {
		t.Errorf("expected 1 restore call, got %d", restores)
	}
}

func TestResetDiscardsInFlightFrame(t *testing.T) {
	engine := &mockEngine{block: make(chan struct{})}
	_, sess := setupSession(t, engine)

	events := sess.AddListener()
	defer sess.RemoveListener(events)

	if _, err := sess.ApplyEdit(landmark.Lips, expression.Vector{X: 0.41, Y: 0.21}, nil, expression.ModePrimary); err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}

	// Let the transform reach the engine, then reset while it is in flight.
	deadline := time.Now().Add(3 * time.Second)
	for {
		engine.mu.Lock()
		started := len(engine.transforms) == 1
		engine.mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("transform never reached the engine")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := sess.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	close(engine.block)

	// The stale edit must never surface as a preview or a failure; only the
	// restore frame comes through.
	waitEvent(t, events, EventPreview)
	frame, ok := sess.Preview()
	if !ok || string(frame) != "neutral" {
		t.Errorf("expected the neutral frame, got %q (ok=%v)", frame, ok)
	}

	for {
		select {
		case e := <-events:
			if e.Type == EventDispatchFailed {
				t.Errorf("cancelled in-flight dispatch surfaced as failure: %+v", e)
			}
			continue
		default:
		}
		break
	}
}

func TestClosedSessionRejectsEdits(t *testing.T) {
	engine := &mockEngine{}
	manager, sess := setupSession(t, engine)

	if !manager.Delete(sess.ID) {
		t.Fatal("Delete returned false for a live session")
	}

	if _, err := sess.ApplyEdit(landmark.Lips, expression.Vector{X: 0.1}, nil, expression.ModePrimary); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if err := sess.Reset(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestManagerLifecycle(t *testing.T) {
	engine := &mockEngine{}
	manager, sess := setupSession(t, engine)

	if got := manager.Get(sess.ID); got != sess {
		t.Error("Get should return the created session")
	}
	if manager.Get("missing") != nil {
		t.Error("Get should return nil for an unknown ID")
	}
	if manager.Count() != 1 {
		t.Errorf("expected 1 session, got %d", manager.Count())
	}

	if !manager.Delete(sess.ID) {
		t.Error("Delete should report success")
	}
	if manager.Delete(sess.ID) {
		t.Error("second Delete should report failure")
	}
	if manager.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", manager.Count())
	}
}

func TestManagerReapsExpiredSessions(t *testing.T) {
	engine := &mockEngine{}
	server := httptest.NewServer(engine.handler())
	t.Cleanup(server.Close)

	client, err := renderer.NewClient(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	manager := NewManager(client, nil, time.Hour)
	t.Cleanup(manager.Close)

	sess, err := manager.Create(context.Background(), "portrait.jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess.mu.Lock()
	sess.lastUsed = time.Now().Add(-2 * time.Hour)
	sess.mu.Unlock()

	manager.reapExpired()

	if manager.Get(sess.ID) != nil {
		t.Error("expired session should have been reaped")
	}
}
