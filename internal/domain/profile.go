// Package domain contains the core types for the credit ledger and the
// generated-image gallery.
package domain

import (
	"time"

	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// GenerationCost is the number of credits reserved for one generation batch.
const GenerationCost = 50

// Profile is the per-user ledger record. One exists per identity, keyed by
// the identity id, and it is created lazily with a zero balance the first
// time the user is observed.
type Profile struct {
	IdentityID string    `json:"identityId" dynamodbav:"IdentityID"`
	Email      string    `json:"email" dynamodbav:"Email"`
	Credits    int       `json:"credits" dynamodbav:"Credits"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt  time.Time `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// NewProfile creates the lazily-initialized profile for a first-time user.
func NewProfile(identityID, email string) Profile {
	now := time.Now().UTC()
	return Profile{
		IdentityID: identityID,
		Email:      email,
		Credits:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanAfford reports whether the balance covers one generation.
func (p Profile) CanAfford() bool {
	return p.Credits >= GenerationCost
}

// Debit returns the balance after reserving cost credits. The balance is
// never allowed to go negative.
func (p Profile) Debit(cost int) (int, error) {
	if cost < 0 {
		return p.Credits, appErrors.NewValidation("debit amount must be non-negative")
	}
	if p.Credits < cost {
		return p.Credits, appErrors.NewValidation("insufficient credits")
	}
	return p.Credits - cost, nil
}

// AddCredits returns the balance after a purchase increment.
func (p Profile) AddCredits(amount int) (int, error) {
	if amount <= 0 {
		return p.Credits, appErrors.NewValidation("credit amount must be positive")
	}
	return p.Credits + amount, nil
}
