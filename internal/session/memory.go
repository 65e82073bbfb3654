// internal/session/memory.go
package session

import (
	"context"
	"sync"

	"careescapes-workers/internal/models"
)

// MemoryStore keeps sessions in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return clone(s), nil
}

func (m *MemoryStore) Put(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = clone(s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func clone(s *models.Session) *models.Session {
	cp := *s
	cp.History = append(models.ConversationHistory(nil), s.History...)
	cp.Known = s.Known.Clone()
	return &cp
}
