package upload

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or closed session ids.
var ErrSessionNotFound = errors.New("upload session not found")

// Manager keeps upload sessions in memory.
type Manager struct {
	logger *zap.Logger
	timing Timing

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// NewManager returns an empty manager whose sessions use timing.
func NewManager(logger *zap.Logger, timing Timing) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:   logger,
		timing:   timing,
		sessions: make(map[string]*entry),
	}
}

// Create registers a new empty session.
func (m *Manager) Create() *Session {
	s := NewSession(m.logger, m.timing)
	m.mu.Lock()
	m.sessions[s.ID()] = &entry{session: s, lastUsed: time.Now()}
	m.mu.Unlock()
	return s
}

// Get returns a registered session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	e.lastUsed = time.Now()
	return e.session, nil
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	e.session.Close()
	return nil
}

// Expire closes and forgets the sessions that were neither requested nor
// changed during the maxIdle before now. It returns how many were removed.
func (m *Manager) Expire(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)
	var expired []*Session

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastUsed.After(cutoff) || e.session.Status().UpdatedAt.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, e.session)
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Info(fmt.Sprintf("expired %d idle upload sessions", len(expired)),
			zap.String("op", "upload.Expire"),
		)
	}
	return len(expired)
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()
	for _, e := range sessions {
		e.session.Close()
	}
}
