package session

import (
	"context"
	"sync"
)

// MemoryRefreshStore is an in-process RefreshStore for tests and for running
// the console without Redis. It does not survive restarts.
type MemoryRefreshStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryRefreshStore() *MemoryRefreshStore { return &MemoryRefreshStore{} }

func (s *MemoryRefreshStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryRefreshStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryRefreshStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
