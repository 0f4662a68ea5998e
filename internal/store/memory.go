package store

import (
	"context"
	"sync"

	"coin-gateway/internal/models"
)

// Memory is an in-process Store for tests and local development.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]models.Session)}
}

func (m *Memory) Get(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[key(sessionID)]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (m *Memory) Put(_ context.Context, sessionID string, sess models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(sessionID)
	cur, ok := m.sessions[k]
	if !ok {
		if sess.Version != 0 {
			return ErrConflict
		}
	} else if cur.Version != sess.Version {
		return ErrConflict
	}
	sess.Version++
	m.sessions[k] = sess
	return nil
}

func (m *Memory) Close() error {
	return nil
}
