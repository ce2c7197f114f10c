package session

import (
	"sync"

	"github.com/vacme/vacme-backend/pkg/config"
)

// Store holds one BookingSession per session ID. Sessions are created
// lazily on first access and live until explicitly removed. There is no
// cross-session coordination: two sessions working on the same
// registration race last-write-wins, which is an accepted limitation of
// the booking flow.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*BookingSession
	interval DoseInterval
}

// NewStore creates a session store applying the configured dose
// interval to every session.
func NewStore(cfg *config.BookingConfig) *Store {
	return &Store{
		sessions: make(map[string]*BookingSession),
		interval: DoseInterval{
			MinDays: cfg.DoseMinIntervalDays,
			MaxDays: cfg.DoseMaxIntervalDays,
		},
	}
}

// Get returns the session for the given ID, creating it when absent.
func (st *Store) Get(sessionID string) *BookingSession {
	st.mu.RLock()
	s, ok := st.sessions[sessionID]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[sessionID]; ok {
		return s
	}
	s = newSession(st.interval)
	st.sessions[sessionID] = s
	return s
}

// Remove tears the session down. The next Get for the same ID starts
// from a clean session.
func (st *Store) Remove(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, sessionID)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
