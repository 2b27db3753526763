// Package identity bridges the external identity provider to the rest of
// the system: interactive sign-in, session persistence, sign-out, and a
// live auth-state stream consumed by the session manager.
package identity

import (
	"context"
	"errors"
)

// ErrSignInCancelled is returned when the user abandons the interactive
// sign-in flow. The session manager suppresses it silently.
var ErrSignInCancelled = errors.New("sign-in cancelled by user")

// ErrNoSession indicates no persisted session exists for restoration.
var ErrNoSession = errors.New("no persisted session")

// Identity is the opaque user reference owned by the provider. This system
// only ever reads it.
type Identity struct {
	ID    string
	Email string
}

// Credentials carries the inputs of one interactive sign-in attempt.
type Credentials struct {
	Email    string
	Password string
}

// AuthEvent is one observation of the provider's auth state. A nil
// Identity means signed out.
type AuthEvent struct {
	Identity *Identity
}

// Provider is the identity provider boundary.
type Provider interface {
	// SignIn runs the interactive authentication flow. Returns
	// ErrSignInCancelled when the user abandons it.
	SignIn(ctx context.Context, creds Credentials) (Identity, error)

	// SignOut terminates the provider session.
	SignOut(ctx context.Context) error

	// CurrentUser restores an already-valid persisted session without an
	// interactive step. Returns ErrNoSession when none exists.
	CurrentUser(ctx context.Context) (Identity, error)

	// ObserveAuthState streams auth-state changes. The returned cancel
	// func tears the stream down.
	ObserveAuthState(ctx context.Context) (<-chan AuthEvent, func())
}
