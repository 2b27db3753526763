// Package store defines the document store boundary: keyed-record reads and
// writes with live subscription semantics. Implementations exist for
// DynamoDB (store/ddb) and in-memory (store/memory).
package store

import (
	"context"
	"fmt"

	"github.com/zack-george/instanthspro/internal/domain"
)

// CancelFunc tears down a subscription. After it returns, no further values
// are delivered and the subscription's channel is closed.
type CancelFunc func()

// ErrNotFound is returned when a keyed record does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// IsNotFound checks if an error is a store not found error.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// ErrAlreadyExists is returned by conditional creates when the record is
// already present. Callers racing on lazy creation treat this as non-fatal.
type ErrAlreadyExists struct {
	Resource string
	ID       string
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s with ID '%s' already exists", e.Resource, e.ID)
}

// IsAlreadyExists checks if an error is a store conflict error.
func IsAlreadyExists(err error) bool {
	_, ok := err.(ErrAlreadyExists)
	return ok
}

// ProfileStore persists the per-user credit ledger record.
type ProfileStore interface {
	// GetProfile fetches the profile keyed by identity id.
	GetProfile(ctx context.Context, identityID string) (domain.Profile, error)

	// CreateProfileIfAbsent performs a conditional create. Returns
	// ErrAlreadyExists when the record is present.
	CreateProfileIfAbsent(ctx context.Context, profile domain.Profile) error

	// UpdateCredits overwrites the credit balance. Last-writer-wins: no
	// compare-and-swap is performed, matching the observed system.
	UpdateCredits(ctx context.Context, identityID string, credits int) error

	// SubscribeProfile streams the current profile: an initial snapshot
	// (when the record exists) followed by every subsequent update.
	SubscribeProfile(ctx context.Context, identityID string) (<-chan domain.Profile, CancelFunc, error)
}

// GenerationStore persists the append-only generation history.
type GenerationStore interface {
	// AppendGeneration writes one completed batch. Records are never
	// mutated or deleted afterwards.
	AppendGeneration(ctx context.Context, record domain.GenerationRecord) error

	// ListGenerations returns all records owned by ownerID, oldest first.
	ListGenerations(ctx context.Context, ownerID string) ([]domain.GenerationRecord, error)

	// SubscribeGenerations streams the owner's full record set: an initial
	// snapshot followed by the complete set after every append.
	SubscribeGenerations(ctx context.Context, ownerID string) (<-chan []domain.GenerationRecord, CancelFunc, error)
}

// Store combines both record families behind one document store handle.
type Store interface {
	ProfileStore
	GenerationStore
}
