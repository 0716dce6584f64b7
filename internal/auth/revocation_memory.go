package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore remembers sessions that were ended before their ceiling.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// NewInMemoryRevocationStore returns a RevocationStore backed by an in-memory map.
func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{revoked: make(map[string]time.Time), now: time.Now}
}

// InMemoryRevocationStore implements RevocationStore for tests and local development.
type InMemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// Revoke records sessionID as revoked until the provided time.
func (s *InMemoryRevocationStore) Revoke(_ context.Context, sessionID string, until time.Time) error {
	s.mu.Lock()
	s.revoked[sessionID] = until
	s.gcLocked(s.now())
	s.mu.Unlock()
	return nil
}

// IsRevoked reports whether sessionID is currently revoked.
func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.revoked[sessionID]
	s.mu.RUnlock()
	return ok && s.now().Before(until), nil
}

// Len reports how many revocations are retained. Useful for tests.
func (s *InMemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked)
}

func (s *InMemoryRevocationStore) gcLocked(now time.Time) {
	for id, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, id)
		}
	}
}
