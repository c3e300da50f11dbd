package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trendingvenues/termdict/internal/auth"
)

// fakeProvider counts every call so tests can assert the domain check runs
// before any credential dispatch.
type fakeProvider struct {
	signInCalls   int
	signUpCalls   int
	resetCalls    int
	updateCalls   []string
	signOutTokens []string
	failWith      error
	identity      auth.Identity
}

func (p *fakeProvider) session() *auth.Session {
	return &auth.Session{
		Token:     "tok-" + p.identity.ID,
		Identity:  p.identity,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (p *fakeProvider) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	p.signInCalls++
	if p.failWith != nil {
		return nil, p.failWith
	}
	p.identity.Email = email
	return p.session(), nil
}

func (p *fakeProvider) SignUp(_ context.Context, email, _ string) (*auth.Session, error) {
	p.signUpCalls++
	if p.failWith != nil {
		return nil, p.failWith
	}
	p.identity.Email = email
	return p.session(), nil
}

func (p *fakeProvider) SignOut(_ context.Context, token string) error {
	p.signOutTokens = append(p.signOutTokens, token)
	return nil
}

func (p *fakeProvider) RequestPasswordReset(_ context.Context, _ string) error {
	p.resetCalls++
	return nil
}

func (p *fakeProvider) UpdatePassword(_ context.Context, userID, _ string) error {
	p.updateCalls = append(p.updateCalls, userID)
	return nil
}

func (p *fakeProvider) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if p.failWith != nil {
		return nil, p.failWith
	}
	id := p.identity
	return &id, nil
}

func newService(p *fakeProvider) *auth.Service {
	return auth.NewService(p, "trendingvenues.com", nil)
}

func TestSignInRejectsForeignDomainBeforeProvider(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1"}}
	svc := newService(p)

	_, err := svc.SignIn(context.Background(), "jane@gmail.com", "secret123")

	var domainErr *auth.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, "only @trendingvenues.com email addresses are allowed", err.Error())
	require.Zero(t, p.signInCalls, "provider must not be reached")
}

func TestSignUpRejectsForeignDomainBeforeProvider(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1"}}
	svc := newService(p)

	_, err := svc.SignUp(context.Background(), "jane@example.org", "secret123")
	var domainErr *auth.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Zero(t, p.signUpCalls)
}

func TestEmailAllowedIsCaseInsensitive(t *testing.T) {
	svc := newService(&fakeProvider{})

	require.True(t, svc.EmailAllowed("jane@trendingvenues.com"))
	require.True(t, svc.EmailAllowed("jane@TrendingVenues.COM"))
	require.False(t, svc.EmailAllowed("jane@other.com"))
	require.False(t, svc.EmailAllowed("trendingvenues.com"))
	require.False(t, svc.EmailAllowed("jane@sub.trendingvenues.com"))
}

func TestSignUpEnforcesPasswordLength(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1"}}
	svc := newService(p)

	_, err := svc.SignUp(context.Background(), "jane@trendingvenues.com", "short")
	require.ErrorIs(t, err, auth.ErrPasswordTooShort)
	require.Zero(t, p.signUpCalls)

	_, err = svc.SignUp(context.Background(), "jane@trendingvenues.com", "longenough")
	require.NoError(t, err)
	require.Equal(t, 1, p.signUpCalls)
}

func TestSignInInstallsSessionAndNotifies(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1", Username: "jane"}}
	svc := newService(p)

	var notified []*auth.Session
	unsub := svc.Subscribe(func(s *auth.Session) { notified = append(notified, s) })
	defer unsub()

	sess, err := svc.SignIn(context.Background(), "jane@trendingvenues.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, sess, svc.Current())
	require.Len(t, notified, 1)
	require.Equal(t, "jane", notified[0].Identity.Username)

	require.NoError(t, svc.SignOut(context.Background()))
	require.Nil(t, svc.Current())
	require.Len(t, notified, 2)
	require.Nil(t, notified[1])
}

func TestSignOutTokenOnlyClearsMatchingSession(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1"}}
	svc := newService(p)

	sess, err := svc.SignIn(context.Background(), "jane@trendingvenues.com", "secret123")
	require.NoError(t, err)

	// revoking someone else's token must not tear down this session
	require.NoError(t, svc.SignOutToken(context.Background(), "tok-other"))
	require.Equal(t, []string{"tok-other"}, p.signOutTokens)
	require.Equal(t, sess, svc.Current())

	// an empty token is a no-op
	require.NoError(t, svc.SignOutToken(context.Background(), ""))
	require.Len(t, p.signOutTokens, 1)

	require.NoError(t, svc.SignOutToken(context.Background(), sess.Token))
	require.Nil(t, svc.Current())
}

func TestFailedSignInInstallsNothing(t *testing.T) {
	p := &fakeProvider{failWith: auth.ErrInvalidCredentials}
	svc := newService(p)

	_, err := svc.SignIn(context.Background(), "jane@trendingvenues.com", "wrong1")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.Nil(t, svc.Current())
}

func TestResetPasswordDomainChecked(t *testing.T) {
	p := &fakeProvider{}
	svc := newService(p)

	err := svc.ResetPassword(context.Background(), "jane@gmail.com")
	var domainErr *auth.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Zero(t, p.resetCalls)

	require.NoError(t, svc.ResetPassword(context.Background(), "jane@trendingvenues.com"))
	require.Equal(t, 1, p.resetCalls)
}

func TestUpdatePasswordRequiresSession(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1"}}
	svc := newService(p)

	err := svc.UpdatePassword(context.Background(), "newsecret")
	require.ErrorIs(t, err, auth.ErrNoSession)

	_, err = svc.SignIn(context.Background(), "jane@trendingvenues.com", "secret123")
	require.NoError(t, err)

	require.ErrorIs(t, svc.UpdatePassword(context.Background(), "tiny"), auth.ErrPasswordTooShort)
	require.NoError(t, svc.UpdatePassword(context.Background(), "newsecret"))
	require.Equal(t, []string{"u1"}, p.updateCalls)
}

func TestResumeResolvesStoredToken(t *testing.T) {
	p := &fakeProvider{identity: auth.Identity{ID: "u1", Email: "jane@trendingvenues.com"}}
	svc := newService(p)

	svc.Resume(context.Background(), "stored-token")
	require.NotNil(t, svc.Current())
	require.Equal(t, "u1", svc.Current().Identity.ID)
}

func TestResumeWithInvalidTokenClearsSession(t *testing.T) {
	p := &fakeProvider{failWith: errors.New("expired")}
	svc := newService(p)

	var notified int
	unsub := svc.Subscribe(func(*auth.Session) { notified++ })
	defer unsub()

	svc.Resume(context.Background(), "bad-token")
	require.Nil(t, svc.Current())
	// subscribers hear about the resolution either way
	require.Equal(t, 1, notified)
}
