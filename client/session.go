package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"golang.org/x/sync/singleflight"
)

// State is whether a session currently holds tokens.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged in"
	}
	return "logged out"
}

// refreshTimeout bounds a shared refresh call.
const refreshTimeout = 30 * time.Second

// Refresher exchanges a refresh token for a new pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	return f(ctx, refreshToken)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogoutHook registers fn to run whenever the session goes from logged in
// to logged out, either by Logout or because a refresh failed.
func WithLogoutHook(fn func()) SessionOption {
	return func(s *Session) {
		s.onLogout = fn
	}
}

// Session holds the client's token pair. Every change is written to the
// store inside the same critical section that changes the in-memory state.
type Session struct {
	mu       sync.Mutex
	tokens   *domain.TokenPair
	version  uint64
	store    TokenStore
	onLogout func()
	group    singleflight.Group
	logger   *slog.Logger
}

// NewSession creates a Session and restores any pair held by store.
func NewSession(ctx context.Context, store TokenStore, opts ...SessionOption) (*Session, error) {
	s := &Session{
		store:  store,
		logger: slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	pair, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.tokens = pair
	return s, nil
}

// State reports whether tokens are held.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return LoggedOut
	}
	return LoggedIn
}

// Tokens returns a copy of the held pair, or nil.
func (s *Session) Tokens() *domain.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil
	}
	pair := *s.tokens
	return &pair
}

// accessToken returns the current access token and the version of the pair
// it belongs to. The version changes every time the pair is replaced or cleared.
func (s *Session) accessToken() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return "", s.version
	}
	return s.tokens.AccessToken, s.version
}

// Begin stores a freshly issued pair, as after a login.
func (s *Session) Begin(ctx context.Context, pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(ctx, pair)
}

// replaceLocked keeps the new pair in memory even if persisting it fails;
// the server has already stopped accepting the previous one.
func (s *Session) replaceLocked(ctx context.Context, pair domain.TokenPair) error {
	s.tokens = &pair
	s.version++
	return s.store.Save(ctx, pair)
}

// End drops the held pair and fires the logout hook if a pair was held.
// The in-memory state is cleared even if the store fails.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	wasLoggedIn, err := s.clearLocked(ctx)
	s.mu.Unlock()

	s.loggedOut(wasLoggedIn)
	return err
}

func (s *Session) clearLocked(ctx context.Context) (bool, error) {
	wasLoggedIn := s.tokens != nil
	s.tokens = nil
	s.version++
	return wasLoggedIn, s.store.Clear(ctx)
}

func (s *Session) loggedOut(wasLoggedIn bool) {
	if wasLoggedIn && s.onLogout != nil {
		s.onLogout()
	}
}

// refresh rotates the pair using r unless it already changed since version
// seen was read. Concurrent callers share one call to r, which runs on its
// own deadline so that a caller giving up does not fail the others.
func (s *Session) refresh(ctx context.Context, r Refresher, seen uint64) error {
	ch := s.group.DoChan("refresh", func() (any, error) {
		rotateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return nil, s.rotate(rotateCtx, r, seen)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight refresh")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rotate performs one refresh. A rejection ends the session only if the pair
// it was made with is still the current one.
func (s *Session) rotate(ctx context.Context, r Refresher, seen uint64) error {
	s.mu.Lock()
	if s.tokens == nil {
		s.mu.Unlock()
		return ErrNoRefreshToken
	}
	if s.version != seen {
		s.mu.Unlock()
		return nil
	}
	refreshToken := s.tokens.RefreshToken
	s.mu.Unlock()

	pair, err := r.Refresh(ctx, refreshToken)

	s.mu.Lock()
	if s.version != seen {
		// Logged out or logged in again while the refresh was in flight.
		loggedOut := s.tokens == nil
		s.mu.Unlock()
		if loggedOut {
			return ErrNoRefreshToken
		}
		return nil
	}

	if err == nil {
		defer s.mu.Unlock()
		return s.replaceLocked(ctx, *pair)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.mu.Unlock()
		return err
	}

	s.logger.Warn("refresh failed, ending session", "error", err)
	wasLoggedIn, clearErr := s.clearLocked(context.WithoutCancel(ctx))
	s.mu.Unlock()
	if clearErr != nil {
		s.logger.Error("failed to clear session", "error", clearErr)
	}
	s.loggedOut(wasLoggedIn)
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}
