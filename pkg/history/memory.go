package history

import (
	"context"
	"sync"
)

// MemoryStore keeps exchanges in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string][]Exchange
	maxEntries int
	closed     bool
}

// NewMemoryStore creates an empty store keeping at most maxEntries exchanges per session.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string][]Exchange),
		maxEntries: maxOrDefault(maxEntries),
	}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, ex Exchange) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	log := append(s.sessions[sessionID], stamp(ex))
	if over := len(log) - s.maxEntries; over > 0 {
		log = append([]Exchange(nil), log[over:]...)
	}
	s.sessions[sessionID] = log
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]Exchange, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]Exchange, len(s.sessions[sessionID]))
	copy(out, s.sessions[sessionID])
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.sessions), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = nil
	return nil
}
