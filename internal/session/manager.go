package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"operator-console/internal/backend"
)

// refreshLead is how long before access-token expiry the scheduled refresh
// fires.
const refreshLead = time.Minute

// refreshTimeout bounds the background refresh call.
const refreshTimeout = 30 * time.Second

// defaultAccessTTL is assumed when the upstream reports no usable expiry at
// all (no expires_in and no readable exp claim).
const defaultAccessTTL = 5 * time.Minute

var ErrNoSession = errors.New("session: not logged in")

// AuthAPI is the slice of the backend client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (backend.Session, error)
	RefreshToken(ctx context.Context, token string) (backend.Session, error)
}

// Manager owns the session lifecycle: login, scheduled refresh, logout.
//
// Invariants:
// - at most one scheduled refresh is pending; scheduling replaces any prior
//   timer (last write wins)
// - a refresh failure leaves the stale pair installed; the operator is not
//   forced out, the next authenticated call surfaces the 401
type Manager struct {
	api     AuthAPI
	tokens  *TokenStore
	persist RefreshStore
	log     *slog.Logger

	// clock and after are injectable for deterministic tests.
	clock func() time.Time
	after func(d time.Duration, fn func()) *time.Timer

	mu    sync.Mutex
	timer *time.Timer
}

func NewManager(api AuthAPI, tokens *TokenStore, persist RefreshStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		api:     api,
		tokens:  tokens,
		persist: persist,
		log:     log,
		clock:   time.Now,
		after:   time.AfterFunc,
	}
}

// Login authenticates the operator. On success the pair is installed as the
// credential for all subsequent backend calls, the refresh token is
// persisted, and exactly one refresh is scheduled.
func (m *Manager) Login(ctx context.Context, username, password string) (backend.Session, error) {
	sess, err := m.api.Login(ctx, username, password)
	if err != nil {
		return backend.Session{}, fmt.Errorf("session: login: %w", err)
	}
	m.install(ctx, sess)
	return sess, nil
}

// Refresh exchanges the stored refresh token for a new pair and re-installs
// it. On failure the stale credential stays in place.
func (m *Manager) Refresh(ctx context.Context) (backend.Session, error) {
	tok := m.tokens.RefreshToken()
	if tok == "" {
		return backend.Session{}, ErrNoSession
	}
	sess, err := m.api.RefreshToken(ctx, tok)
	if err != nil {
		return backend.Session{}, fmt.Errorf("session: refresh: %w", err)
	}
	m.install(ctx, sess)
	return sess, nil
}

// Resume restores a session from a persisted refresh token, if any. It
// reports false when nothing was persisted.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	tok, err := m.persist.Load(ctx)
	if err != nil {
		return false, err
	}
	if tok == "" {
		return false, nil
	}
	sess, err := m.api.RefreshToken(ctx, tok)
	if err != nil {
		return false, fmt.Errorf("session: resume: %w", err)
	}
	m.install(ctx, sess)
	return true, nil
}

// Logout cancels any pending refresh, clears the persisted refresh token and
// drops the installed pair.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	err := m.persist.Clear(ctx)
	m.tokens.Clear()
	return err
}

func (m *Manager) LoggedIn() bool { return m.tokens.AccessToken() != "" }

func (m *Manager) install(ctx context.Context, sess backend.Session) {
	m.tokens.Set(sess.AccessToken, sess.RefreshToken)
	if err := m.persist.Save(ctx, sess.RefreshToken); err != nil {
		m.log.Warn("refresh token not persisted", "err", err)
	}
	m.schedule(m.accessTTL(sess))
}

// accessTTL works out how long the access token lives. expires_in is
// authoritative; when absent, the token's own exp claim is consulted.
func (m *Manager) accessTTL(sess backend.Session) time.Duration {
	if sess.ExpiresIn > 0 {
		return time.Duration(sess.ExpiresIn) * time.Second
	}
	if d, ok := tokenExpiry(sess.AccessToken, m.clock()); ok {
		return d
	}
	return defaultAccessTTL
}

func (m *Manager) schedule(ttl time.Duration) {
	d := refreshDelay(ttl)

	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.after(d, m.refreshNow)
	m.mu.Unlock()
}

// refreshDelay converts a token lifetime into the timer delay. Lifetimes at
// or under the lead clamp to zero, which fires the refresh immediately.
func refreshDelay(ttl time.Duration) time.Duration {
	d := ttl - refreshLead
	if d < 0 {
		return 0
	}
	return d
}

func (m *Manager) refreshNow() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if _, err := m.Refresh(ctx); err != nil {
		m.log.Error("scheduled token refresh failed", "err", err)
	}
}
