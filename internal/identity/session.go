package identity

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// State is the session lifecycle state. Modeling it as one enum (rather
// than a pile of booleans) makes impossible combinations unrepresentable.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Change is delivered to session observers on every state transition.
type Change struct {
	State    State
	Identity *Identity
}

// SessionManager tracks the authenticated identity and its lifecycle.
//
// Transitions: Unauthenticated -> Authenticating -> Authenticated, and
// Authenticated -> Unauthenticated on sign-out. Authenticating always
// resolves once the provider outcome (identity, empty, or error) is
// observed; it never hangs.
type SessionManager struct {
	provider Provider
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	identity *Identity

	subs   map[int]chan Change
	nextID int

	stopObserve func()
}

// NewSessionManager creates a manager around the given provider.
func NewSessionManager(provider Provider, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		provider: provider,
		logger:   logger.Named("SessionManager"),
		state:    StateUnauthenticated,
		subs:     make(map[int]chan Change),
	}
}

// Start resolves any persisted session and begins observing provider
// auth-state changes. It blocks only for the initial resolution.
func (m *SessionManager) Start(ctx context.Context) {
	m.transition(StateAuthenticating, nil)

	ident, err := m.provider.CurrentUser(ctx)
	switch {
	case err == nil:
		m.transition(StateAuthenticated, &ident)
	case errors.Is(err, ErrNoSession):
		m.transition(StateUnauthenticated, nil)
	default:
		m.logger.Warn("session restore failed", zap.Error(err))
		m.transition(StateUnauthenticated, nil)
	}

	events, cancel := m.provider.ObserveAuthState(ctx)
	m.mu.Lock()
	m.stopObserve = cancel
	m.mu.Unlock()

	go m.observe(events)
}

func (m *SessionManager) observe(events <-chan AuthEvent) {
	for event := range events {
		if event.Identity != nil {
			m.transition(StateAuthenticated, event.Identity)
		} else {
			m.transition(StateUnauthenticated, nil)
		}
	}
}

// SignIn runs the interactive flow. A user cancellation is suppressed;
// every other failure surfaces as an auth error, and in both cases the
// state resolves to Unauthenticated.
func (m *SessionManager) SignIn(ctx context.Context, creds Credentials) error {
	m.transition(StateAuthenticating, nil)

	ident, err := m.provider.SignIn(ctx, creds)
	if err != nil {
		m.transition(StateUnauthenticated, nil)
		if errors.Is(err, ErrSignInCancelled) {
			m.logger.Debug("sign-in cancelled by user")
			return nil
		}
		return appErrors.NewAuth("sign-in failed", err)
	}

	m.transition(StateAuthenticated, &ident)
	return nil
}

// SignOut terminates the session. It never returns an error: provider
// failures are logged so the UI can always recover to the signed-out view.
func (m *SessionManager) SignOut(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Error("provider sign-out failed", zap.Error(err))
	}
	m.transition(StateUnauthenticated, nil)
}

// State returns the current lifecycle state.
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the current identity, or nil when signed out.
func (m *SessionManager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Subscribe delivers a Change for every transition, starting with the
// current state.
func (m *SessionManager) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 8)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- Change{State: m.state, Identity: m.identity}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, live := m.subs[id]; live {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Stop tears down the provider observation stream.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	stop := m.stopObserve
	m.stopObserve = nil
	m.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (m *SessionManager) transition(state State, ident *Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == state && sameIdentity(m.identity, ident) {
		return
	}
	m.state = state
	m.identity = ident

	change := Change{State: state, Identity: ident}
	for _, ch := range m.subs {
		select {
		case ch <- change:
		default:
			m.logger.Warn("session subscriber buffer full, dropping change")
		}
	}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
