// Package session ties the composition layer together: each session owns one
// uploaded portrait, its expression state, the preview frame, and a dispatch
// queue that streams accepted edits to the rendering engine one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/facepoke/internal/constants"
	"github.com/kozaktomas/facepoke/internal/database"
	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/frame"
	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/preset"
	"github.com/kozaktomas/facepoke/internal/renderer"
)

// ErrSessionClosed is returned when an operation hits a session that has
// already been torn down.
var ErrSessionClosed = errors.New("session closed")

// ErrUnknownPreset is returned when a preset activation names a preset the
// catalog does not contain.
var ErrUnknownPreset = errors.New("unknown preset")

// dispatchItem is one queued engine call. Items carry the generation they
// were produced under so a reset can invalidate frames still in flight.
type dispatchItem struct {
	gen     uint64
	restore bool
	req     renderer.TransformRequest
}

// Session is one editing session over one uploaded portrait.
//
// Composition is synchronous: ApplyEdit commits to the local expression
// state before returning. Rendering is asynchronous: a single goroutine
// drains the dispatch queue in FIFO order with at most one engine call in
// flight, so frames always arrive in edit order.
type Session struct {
	EventBroadcaster

	ID    string
	Photo renderer.PhotoInfo

	// Portrait is the uploaded image as received. Kept for features that
	// need the source pixels again, like AI suggestions.
	Portrait []byte

	engine  *renderer.Client
	history database.HistoryWriter

	mu             sync.Mutex
	state          *expression.State
	preview        []byte
	previewTag     string
	pending        []dispatchItem
	gen            uint64
	inflightCancel context.CancelFunc
	lastUsed       time.Time
	closed         bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(id string, photo renderer.PhotoInfo, portrait []byte, engine *renderer.Client, history database.HistoryWriter) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		Photo:    photo,
		Portrait: portrait,
		engine:   engine,
		history:  history,
		state:    expression.NewState(),
		lastUsed: time.Now(),
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.dispatchLoop()
	return s
}

// ApplyEdit normalizes and commits one edit, queues it for dispatch, and
// returns the edit as committed. When params is nil the semantic controls
// are derived from the drag vector. The edit is committed locally even if
// the later dispatch fails; local and rendered state are eventually
// consistent.
func (s *Session) ApplyEdit(group landmark.Group, vector expression.Vector, params expression.Params, mode expression.Mode) (expression.Edit, error) {
	if params == nil {
		params = expression.DeriveParams(group, vector)
	}
	edit, err := expression.Normalize(group, vector, params, mode)
	if err != nil {
		return expression.Edit{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return expression.Edit{}, ErrSessionClosed
	}
	committed := s.state.Apply(edit)
	snapshot := expression.ParamVector(s.state.Accumulate())
	s.pending = append(s.pending, dispatchItem{
		gen: s.gen,
		req: renderer.TransformRequest{
			Group:    committed.Group,
			Vector:   committed.Vector,
			Distance: committed.Distance,
			Params:   committed.Params,
		},
	})
	backlog := len(s.pending)
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if backlog > constants.DispatchQueueWarning {
		log.Printf("session %s: dispatch backlog at %d edits", s.ID, backlog)
	}
	s.signal()
	s.recordEdit(committed, snapshot)
	s.SendEvent(Event{Type: EventEdit, Data: committed})
	return committed, nil
}

// ActivatePreset applies a named preset as its ordered edit sequence. Each
// preset edit goes through the same path as an interactive one, so a preset
// with N edits produces exactly N dispatch messages in declaration order.
func (s *Session) ActivatePreset(name string) ([]expression.Edit, error) {
	p, ok := preset.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	committed := make([]expression.Edit, 0, len(p.Edits))
	for _, e := range p.Edits {
		edit, err := s.ApplyEdit(e.Group, e.Vector, e.Params, expression.ModePrimary)
		if err != nil {
			return committed, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		committed = append(committed, edit)
	}
	return committed, nil
}

// Reset clears the expression state and the preview, drops queued edits,
// cancels any in-flight render, and queues a restore so the engine returns
// the neutral portrait. Frames from before the reset are discarded if they
// still arrive.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state.Reset()
	s.preview = nil
	s.previewTag = ""
	s.gen++
	s.pending = s.pending[:0]
	s.pending = append(s.pending, dispatchItem{gen: s.gen, restore: true})
	if s.inflightCancel != nil {
		s.inflightCancel()
	}
	s.lastUsed = time.Now()
	s.mu.Unlock()

	s.signal()
	s.SendEvent(Event{Type: EventReset})
	return nil
}

// State returns the active edits in first-touch order.
func (s *Session) State() []expression.Edit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Accumulate returns the session's accumulated semantic controls.
func (s *Session) Accumulate() expression.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Accumulate()
}

// Preview returns the latest rendered frame, or false when no frame has
// arrived yet (or a reset cleared it).
func (s *Session) Preview() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return nil, false
	}
	frame := make([]byte, len(s.preview))
	copy(frame, s.preview)
	return frame, true
}

// PreviewTag returns the perceptual fingerprint of the current preview
// frame, empty when there is none. Two frames rendering the same portrait
// share a tag, which lets the HTTP layer answer conditional requests.
func (s *Session) PreviewTag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewTag
}

// LastUsed reports when the session last served an operation.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Touch marks the session as recently used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Close tears the session down: stops the dispatch loop, asks the engine to
// forget the photo, and closes event listeners. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = nil
	if s.inflightCancel != nil {
		s.inflightCancel()
	}
	s.mu.Unlock()

	s.cancel()
	s.closeListeners()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.engine.Forget(ctx, s.Photo.UID); err != nil {
		log.Printf("session %s: forget photo: %v", s.ID, err)
	}
}

// signal wakes the dispatch loop. Non-blocking; a pending wakeup covers any
// number of queued items.
func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// dispatchLoop drains the queue in FIFO order, one engine call at a time.
func (s *Session) dispatchLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if s.closed || len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			item := s.pending[0]
			s.pending = s.pending[1:]
			ctx, cancel := context.WithCancel(s.ctx)
			s.inflightCancel = cancel
			s.mu.Unlock()

			s.dispatch(ctx, item)
			cancel()
		}
	}
}

// dispatch performs one engine call and publishes the result. A frame
// rendered under an older generation is discarded; a failed dispatch is
// reported and the loop moves on, the local state stays committed.
func (s *Session) dispatch(ctx context.Context, item dispatchItem) {
	var rendered []byte
	var err error
	if item.restore {
		rendered, err = s.engine.Restore(ctx, s.Photo.UID)
	} else {
		rendered, err = s.engine.Transform(ctx, s.Photo.UID, item.req)
	}

	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		stale := item.gen != s.gen
		s.mu.Unlock()
		if stale {
			// Cancelled by a reset, not a real failure.
			return
		}
		log.Printf("session %s: dispatch %s: %v", s.ID, item.req.Group, err)
		s.SendEvent(Event{Type: EventDispatchFailed, Message: err.Error(), Data: item.req})
		return
	}

	tag := ""
	if hash, hashErr := frame.Hash(rendered); hashErr == nil {
		tag = fmt.Sprintf("%016x", hash)
	}

	s.mu.Lock()
	if item.gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.preview = rendered
	s.previewTag = tag
	s.mu.Unlock()

	s.SendEvent(Event{Type: EventPreview, Data: map[string]any{"bytes": len(rendered)}})
}

// recordEdit persists the edit and its expression snapshot. Best-effort:
// history failures never block composition.
func (s *Session) recordEdit(edit expression.Edit, snapshot []float32) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.SaveEdit(ctx, s.ID, edit, snapshot); err != nil {
		log.Printf("session %s: save edit history: %v", s.ID, err)
	}
}
