package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore — in-memory реализация Store для разработки и тестов.
// Каждая запись сессии живёт ttl с момента последней записи.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*memorySession
}

type memorySession struct {
	values    map[string][]byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*memorySession),
	}
}

// NewMemoryStoreWithClock — для детерминированных тестов TTL.
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	s := NewMemoryStore(ttl)
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.alive(sessionID)
	if sess == nil {
		return nil, ErrNotFound
	}
	v, ok := sess.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.alive(sessionID)
	if sess == nil {
		sess = &memorySession{values: make(map[string][]byte)}
		s.sessions[sessionID] = sess
	}
	sess.values[key] = value
	sess.expiresAt = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.alive(sessionID)
	if sess == nil {
		return nil, ErrNotFound
	}
	v, ok := sess.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(sess.values, key)
	if len(sess.values) == 0 {
		delete(s.sessions, sessionID)
	}
	return v, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// alive — возвращает сессию, попутно выбрасывая протухшую.
func (s *MemoryStore) alive(sessionID string) *memorySession {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}
