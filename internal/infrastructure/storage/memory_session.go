package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionRepository in-memory session repository. A ttl of zero
// keeps sessions forever.
func NewMemorySessionRepository(ttl time.Duration) repository.SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]*entity.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session
func (m *memorySessionRepository) Create(ctx context.Context, session entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	now := m.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.LastActivity = now
	session.Catalog = session.Catalog.Clone()
	m.sessions[session.ID] = &session
	return nil
}

// Get returns a deep copy of the session
func (m *memorySessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok || m.expired(session) {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}

	snapshot := *session
	snapshot.Catalog = session.Catalog.Clone()
	snapshot.Notices = append([]entity.Notice(nil), session.Notices...)
	return &snapshot, nil
}

// Update runs fn on the live session. Mutations are serialized.
func (m *memorySessionRepository) Update(ctx context.Context, id string, fn func(*entity.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok || m.expired(session) {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}

	session.LastActivity = m.now()
	return fn(session)
}

// Delete drops the session
func (m *memorySessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Expire drops idle sessions
func (m *memorySessionRepository) Expire(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if m.expired(session) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memorySessionRepository) expired(session *entity.Session) bool {
	return m.ttl > 0 && m.now().Sub(session.LastActivity) > m.ttl
}
