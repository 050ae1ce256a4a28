package session

import (
	"fmt"
	"sync"
)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryStore creates a MemoryStore, optionally seeded with s.
func NewMemoryStore(s *Session) *MemoryStore {
	return &MemoryStore{session: s.Clone()}
}

// Load returns a copy of the stored session, or nil.
func (m *MemoryStore) Load() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// Save stores a copy of s.
func (m *MemoryStore) Save(s *Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s.Clone()
	return nil
}

// Clear drops the stored session.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
