package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a map. It exists for tests and single
// process development runs; production uses RedisStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.expired(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrExpired
	}

	// Copy so callers cannot mutate stored state without Save.
	out := sess
	out.Flashes = append([]Flash(nil), sess.Flashes...)
	return &out, nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sess
	stored.Flashes = append([]Flash(nil), sess.Flashes...)
	s.sessions[sess.Token] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
