package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// TokenStore persists the provider session tokens across restarts. The
// provider owns session persistence; this core only reads and clears it.
type TokenStore interface {
	Load() (access, refresh string, ok bool)
	Save(access, refresh string)
	Clear()
}

// MemoryTokenStore keeps tokens for the lifetime of the process.
type MemoryTokenStore struct {
	mu      sync.Mutex
	access  string
	refresh string
	set     bool
}

func (s *MemoryTokenStore) Load() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.refresh, s.set
}

func (s *MemoryTokenStore) Save(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.set = access, refresh, true
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh, s.set = "", "", false
}

// SupabaseProvider implements the identity provider boundary against
// Supabase Auth. The password flow stands in for the environments where
// the redirect handshake is unreliable; both resolve to the same Identity.
type SupabaseProvider struct {
	client *supabase.Client
	tokens TokenStore
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]chan AuthEvent
	nextID int
}

// NewSupabaseProvider creates a provider from an initialized Supabase
// client.
func NewSupabaseProvider(client *supabase.Client, tokens TokenStore, logger *zap.Logger) *SupabaseProvider {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupabaseProvider{
		client: client,
		tokens: tokens,
		logger: logger.Named("SupabaseProvider"),
		subs:   make(map[int]chan AuthEvent),
	}
}

var _ Provider = (*SupabaseProvider)(nil)

// SignIn authenticates with email and password. A context cancellation
// while the flow is pending maps to ErrSignInCancelled.
func (p *SupabaseProvider) SignIn(ctx context.Context, creds Credentials) (Identity, error) {
	resp, err := p.client.Auth.SignInWithEmailPassword(creds.Email, creds.Password)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return Identity{}, ErrSignInCancelled
		}
		return Identity{}, appErrors.NewAuth("provider sign-in failed", err)
	}

	p.tokens.Save(resp.AccessToken, resp.RefreshToken)

	ident := Identity{ID: resp.User.ID.String(), Email: resp.User.Email}
	p.publish(AuthEvent{Identity: &ident})
	return ident, nil
}

// SignOut revokes the provider session and clears persisted tokens.
func (p *SupabaseProvider) SignOut(_ context.Context) error {
	access, _, ok := p.tokens.Load()
	p.tokens.Clear()
	p.publish(AuthEvent{})

	if !ok {
		return nil
	}
	if err := p.client.Auth.WithToken(access).Logout(); err != nil {
		return appErrors.NewAuth("provider sign-out failed", err)
	}
	return nil
}

// CurrentUser restores the persisted session, refreshing the access token
// once if the stored one has gone stale.
func (p *SupabaseProvider) CurrentUser(_ context.Context) (Identity, error) {
	access, refresh, ok := p.tokens.Load()
	if !ok {
		return Identity{}, ErrNoSession
	}

	user, err := p.client.Auth.WithToken(access).GetUser()
	if err != nil && refresh != "" {
		resp, refreshErr := p.client.Auth.RefreshToken(refresh)
		if refreshErr != nil {
			p.tokens.Clear()
			return Identity{}, appErrors.NewAuth("session refresh failed", refreshErr)
		}
		p.tokens.Save(resp.AccessToken, resp.RefreshToken)
		user, err = p.client.Auth.WithToken(resp.AccessToken).GetUser()
	}
	if err != nil {
		p.tokens.Clear()
		return Identity{}, appErrors.NewAuth("session restore failed", err)
	}

	ident := Identity{ID: user.ID.String(), Email: user.Email}
	p.publish(AuthEvent{Identity: &ident})
	return ident, nil
}

// ObserveAuthState streams auth-state changes triggered through this
// provider instance.
func (p *SupabaseProvider) ObserveAuthState(_ context.Context) (<-chan AuthEvent, func()) {
	ch := make(chan AuthEvent, 8)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, live := p.subs[id]; live {
			delete(p.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (p *SupabaseProvider) publish(event AuthEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
			p.logger.Warn("auth event subscriber buffer full, dropping event")
		}
	}
}
