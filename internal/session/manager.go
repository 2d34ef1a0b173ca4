package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/facepoke/internal/constants"
	"github.com/kozaktomas/facepoke/internal/database"
	"github.com/kozaktomas/facepoke/internal/renderer"
)

// Manager owns the live sessions: creation (photo upload), lookup, deletion,
// and TTL-based reaping of sessions nobody touched for a while.
type Manager struct {
	engine  *renderer.Client
	history database.HistoryWriter
	ttl     time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	done chan struct{}
	once sync.Once
}

// NewManager creates a session manager and starts its cleanup loop. A zero
// ttl disables reaping.
func NewManager(engine *renderer.Client, history database.HistoryWriter, ttl time.Duration) *Manager {
	m := &Manager{
		engine:   engine,
		history:  history,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go m.cleanupLoop()
	}
	return m
}

// Create uploads the portrait to the engine and opens a session over it.
func (m *Manager) Create(ctx context.Context, filename string, data []byte) (*Session, error) {
	info, err := m.engine.UploadPhoto(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), *info, data, m.engine, m.history)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Get returns the session by ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete closes the session and removes its persisted history.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}

	s.Close()
	if m.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.history.DeleteSession(ctx, id); err != nil {
			log.Printf("session %s: delete history: %v", id, err)
		}
	}
	return true
}

// Close stops the cleanup loop and closes every session.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) cleanupLoop() {
	// Sweep at half the TTL, but at least once per CleanupInterval so a
	// long TTL does not leave expired sessions lingering for hours.
	interval := m.ttl / 2
	if limit := constants.CleanupInterval * time.Second; interval > limit {
		interval = limit
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.reapExpired()
		}
	}
}

func (m *Manager) reapExpired() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		log.Printf("session %s: expired, closing", id)
		m.Delete(id)
	}
}
