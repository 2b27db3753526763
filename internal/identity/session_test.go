package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// fakeProvider scripts provider outcomes for the session manager.
type fakeProvider struct {
	mu          sync.Mutex
	signInIdent Identity
	signInErr   error
	signOutErr  error
	current     *Identity
	currentErr  error
	events      chan AuthEvent
	signOutSeen int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		events:     make(chan AuthEvent, 8),
		currentErr: ErrNoSession,
	}
}

func (f *fakeProvider) SignIn(_ context.Context, _ Credentials) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return Identity{}, f.signInErr
	}
	return f.signInIdent, nil
}

func (f *fakeProvider) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutSeen++
	return f.signOutErr
}

func (f *fakeProvider) CurrentUser(_ context.Context) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return Identity{}, f.currentErr
	}
	return *f.current, nil
}

func (f *fakeProvider) ObserveAuthState(_ context.Context) (<-chan AuthEvent, func()) {
	return f.events, func() {}
}

func TestStartWithoutPersistedSession(t *testing.T) {
	provider := newFakeProvider()
	m := NewSessionManager(provider, nil)
	defer m.Stop()

	m.Start(context.Background())
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.Identity())
}

func TestStartRestoresPersistedSession(t *testing.T) {
	provider := newFakeProvider()
	provider.current = &Identity{ID: "user-1", Email: "u@example.com"}
	provider.currentErr = nil

	m := NewSessionManager(provider, nil)
	defer m.Stop()

	m.Start(context.Background())
	assert.Equal(t, StateAuthenticated, m.State())
	require.NotNil(t, m.Identity())
	assert.Equal(t, "user-1", m.Identity().ID)
}

func TestStartResolvesOnRestoreError(t *testing.T) {
	provider := newFakeProvider()
	provider.currentErr = errors.New("provider unreachable")

	m := NewSessionManager(provider, nil)
	defer m.Stop()

	m.Start(context.Background())
	// Authenticating must never be left dangling.
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestSignInSuccess(t *testing.T) {
	provider := newFakeProvider()
	provider.signInIdent = Identity{ID: "user-1", Email: "u@example.com"}

	m := NewSessionManager(provider, nil)

	err := m.SignIn(context.Background(), Credentials{Email: "u@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestSignInFailureSurfacesAuthError(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = errors.New("invalid credentials")

	m := NewSessionManager(provider, nil)

	err := m.SignIn(context.Background(), Credentials{})
	require.Error(t, err)
	assert.True(t, appErrors.IsAuth(err))
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestSignInCancellationIsSuppressed(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = ErrSignInCancelled

	m := NewSessionManager(provider, nil)

	err := m.SignIn(context.Background(), Credentials{})
	assert.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestSignOutNeverFails(t *testing.T) {
	provider := newFakeProvider()
	provider.signInIdent = Identity{ID: "user-1"}
	provider.signOutErr = errors.New("provider exploded")

	m := NewSessionManager(provider, nil)
	require.NoError(t, m.SignIn(context.Background(), Credentials{}))

	m.SignOut(context.Background())
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, 1, provider.signOutSeen)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	provider := newFakeProvider()
	provider.signInIdent = Identity{ID: "user-1"}

	m := NewSessionManager(provider, nil)
	ch, cancel := m.Subscribe()
	defer cancel()

	// Initial snapshot.
	change := <-ch
	assert.Equal(t, StateUnauthenticated, change.State)

	require.NoError(t, m.SignIn(context.Background(), Credentials{}))

	var states []State
	for i := 0; i < 2; i++ {
		select {
		case c := <-ch:
			states = append(states, c.State)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for transitions")
		}
	}
	assert.Equal(t, []State{StateAuthenticating, StateAuthenticated}, states)
}

func TestProviderEventsDriveTransitions(t *testing.T) {
	provider := newFakeProvider()
	m := NewSessionManager(provider, nil)
	defer m.Stop()

	m.Start(context.Background())

	provider.events <- AuthEvent{Identity: &Identity{ID: "user-2"}}

	require.Eventually(t, func() bool {
		return m.State() == StateAuthenticated
	}, time.Second, 10*time.Millisecond)

	provider.events <- AuthEvent{}

	require.Eventually(t, func() bool {
		return m.State() == StateUnauthenticated
	}, time.Second, 10*time.Millisecond)
}
