package session

import (
	"context"
	"testing"
)

func TestTokenStore_SetOverwritesPair(t *testing.T) {
	s := NewTokenStore()
	s.Set("a1", "r1")
	s.Set("a2", "r2")
	if s.AccessToken() != "a2" || s.RefreshToken() != "r2" {
		t.Fatalf("expected latest pair, got %q/%q", s.AccessToken(), s.RefreshToken())
	}
}

func TestTokenStore_Clear(t *testing.T) {
	s := NewTokenStore()
	s.Set("a", "r")
	s.Clear()
	if s.AccessToken() != "" || s.RefreshToken() != "" {
		t.Fatalf("expected empty pair after clear")
	}
}

func TestMemoryRefreshStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRefreshStore()

	if tok, err := s.Load(ctx); err != nil || tok != "" {
		t.Fatalf("expected empty load, got %q err %v", tok, err)
	}
	if err := s.Save(ctx, "refresh-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, _ := s.Load(ctx); tok != "refresh-1" {
		t.Fatalf("expected refresh-1, got %q", tok)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := s.Load(ctx); tok != "" {
		t.Fatalf("expected empty after clear, got %q", tok)
	}
}
