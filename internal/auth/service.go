// Package auth provides email/password authentication restricted to a
// single configured email domain, session issuance and verification, and
// the gate that keeps the dictionary unreachable without an identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Identity is the authenticated user fact the rest of the system consumes.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// DisplayName returns the profile username, falling back to the email's
// local part.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	if at := strings.IndexByte(i.Email, '@'); at > 0 {
		return i.Email[:at]
	}
	return i.Email
}

// Session is an issued credential plus the identity it belongs to.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider is the credential backend. All operations already assume the
// email domain has been checked.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	Verify(ctx context.Context, token string) (*Identity, error)
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials covers unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPasswordTooShort rejects new passwords under MinPasswordLength.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	// ErrNoSession is returned by session-bound operations with no signed-in
	// user.
	ErrNoSession = errors.New("no active session")
)

// DomainError rejects a credential operation before any network dispatch.
type DomainError struct {
	Domain string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("only @%s email addresses are allowed", e.Domain)
}

// Service fronts the provider with the domain restriction and maintains a
// session-change subscription for gates. It is constructed explicitly and
// passed to whoever needs it; there is no package-level instance.
type Service struct {
	provider Provider
	domain   string
	logger   *zap.Logger

	mu        sync.Mutex
	current   *Session
	listeners map[int]func(*Session)
	nextID    int
}

// NewService creates an auth service allowing only the given email domain.
func NewService(p Provider, allowedDomain string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:  p,
		domain:    strings.ToLower(allowedDomain),
		logger:    logger,
		listeners: make(map[int]func(*Session)),
	}
}

// AllowedDomain returns the configured email domain.
func (s *Service) AllowedDomain() string { return s.domain }

// EmailAllowed reports whether the email's domain matches the allowed one.
func (s *Service) EmailAllowed(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	return strings.ToLower(email[at+1:]) == s.domain
}

func (s *Service) checkDomain(email string) error {
	if !s.EmailAllowed(email) {
		return &DomainError{Domain: s.domain}
	}
	return nil
}

// SignIn authenticates and installs the resulting session. The domain check
// happens before the provider is touched.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := s.checkDomain(email); err != nil {
		return nil, err
	}
	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setSession(sess)
	s.logger.Info("signed in", zap.String("email", email))
	return sess, nil
}

// SignUp registers a new account and installs the resulting session.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if err := s.checkDomain(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	sess, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setSession(sess)
	s.logger.Info("signed up", zap.String("email", email))
	return sess, nil
}

// SignOut revokes the current session and notifies subscribers immediately.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, sess.Token); err != nil {
		s.logger.Warn("provider sign-out failed", zap.Error(err))
	}
	s.setSession(nil)
	return nil
}

// SignOutToken revokes a specific token, for callers that carry per-request
// credentials instead of the installed session. The installed session is
// cleared only when it holds the same token.
func (s *Service) SignOutToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Warn("provider sign-out failed", zap.Error(err))
	}
	s.mu.Lock()
	matches := s.current != nil && s.current.Token == token
	s.mu.Unlock()
	if matches {
		s.setSession(nil)
	}
	return nil
}

// ResetPassword asks the provider to start a password reset, after the
// domain check.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := s.checkDomain(email); err != nil {
		return err
	}
	return s.provider.RequestPasswordReset(ctx, email)
}

// UpdatePassword changes the signed-in user's password.
func (s *Service) UpdatePassword(ctx context.Context, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}
	return s.provider.UpdatePassword(ctx, sess.Identity.ID, newPassword)
}

// UpdatePasswordFor changes a specific user's password, for callers that
// carry per-request identities instead of the installed session.
func (s *Service) UpdatePasswordFor(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return s.provider.UpdatePassword(ctx, userID, newPassword)
}

// Verify resolves a bearer token to an identity.
func (s *Service) Verify(ctx context.Context, token string) (*Identity, error) {
	return s.provider.Verify(ctx, token)
}

// Resume resolves a possibly persisted token into the current session. An
// empty or invalid token resolves to unauthenticated. Subscribers are
// notified either way, which is what moves a gate out of its checking
// state.
func (s *Service) Resume(ctx context.Context, token string) {
	if token == "" {
		s.setSession(nil)
		return
	}
	id, err := s.provider.Verify(ctx, token)
	if err != nil {
		s.logger.Info("stored session rejected", zap.Error(err))
		s.setSession(nil)
		return
	}
	s.setSession(&Session{Token: token, Identity: *id})
}

// Current returns the installed session, if any.
func (s *Service) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers a session-change listener and returns its release
// function. The listener fires on every install and teardown.
func (s *Service) Subscribe(fn func(*Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) setSession(sess *Session) {
	s.mu.Lock()
	s.current = sess
	fns := make([]func(*Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(sess)
	}
}
