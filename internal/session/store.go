package session

import (
	"sync"
	"time"
)

// Store is an in-process registry of sessions keyed by connection id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it when absent. A
// session left in a terminal state by a previous connection is resumed:
// status returns to active and its transcripts are retained.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		s.reset()
		return s
	}

	s := &Session{
		ID:          id,
		StartTime:   time.Now(),
		Status:      StatusActive,
		Transcripts: make([]Transcript, 0),
	}
	st.sessions[id] = s
	return s
}

// Get returns the session for id, or nil when none exists.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Len reports how many sessions the store holds.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
