package session

import (
	"context"
	"sync"
)

// TokenStore holds the active access/refresh token pair. There is exactly
// one pair per console process; every login or refresh replaces it whole.
// Reads are concurrent-safe so the backend client and the push subscriber
// can pull the current credential at any time.
type TokenStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewTokenStore() *TokenStore { return &TokenStore{} }

// Set installs a new pair, overwriting any previous one.
func (s *TokenStore) Set(access, refresh string) {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()
}

// AccessToken satisfies backend.TokenSource.
func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *TokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.mu.Unlock()
}

// RefreshStore persists the refresh token across process restarts, the way a
// browser console keeps it in durable storage under a fixed key. Load
// returns "" with a nil error when nothing is stored.
type RefreshStore interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
