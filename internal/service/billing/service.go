// Package billing handles credit pack purchases. Payment capture itself
// happens upstream; this service applies the purchased credits to the
// ledger.
package billing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/events"
	"github.com/zack-george/instanthspro/internal/observability"
	"github.com/zack-george/instanthspro/internal/store"
	appErrors "github.com/zack-george/instanthspro/pkg/errors"
)

// Pack is a purchasable credit bundle.
type Pack struct {
	ID         string `json:"id"`
	Credits    int    `json:"credits"`
	PriceCents int    `json:"priceCents"`
}

// Packs are the fixed offerings.
var Packs = []Pack{
	{ID: "starter", Credits: 100, PriceCents: 900},
	{ID: "pro", Credits: 500, PriceCents: 3900},
	{ID: "studio", Credits: 1000, PriceCents: 6900},
}

// Service applies purchases to the credit ledger.
type Service struct {
	profiles  store.ProfileStore
	publisher events.Publisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewService wires the billing service.
func NewService(profiles store.ProfileStore, publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles:  profiles,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("BillingService"),
	}
}

// FindPack resolves a pack by id.
func FindPack(packID string) (Pack, bool) {
	for _, pack := range Packs {
		if pack.ID == packID {
			return pack, true
		}
	}
	return Pack{}, false
}

// Purchase increments the user's balance by the pack size. The increment
// is an unconditional read-modify-write, sharing the ledger's
// last-writer-wins semantics.
func (s *Service) Purchase(ctx context.Context, identityID, packID string) (int, error) {
	pack, ok := FindPack(packID)
	if !ok {
		return 0, appErrors.NewValidation(fmt.Sprintf("unknown credit pack %q", packID))
	}

	profile, err := s.profiles.GetProfile(ctx, identityID)
	if err != nil {
		if store.IsNotFound(err) {
			return 0, appErrors.NewNotFound("profile not found")
		}
		return 0, appErrors.Wrap(err, "failed to load profile")
	}

	newBalance, err := profile.AddCredits(pack.Credits)
	if err != nil {
		return 0, err
	}
	if err := s.profiles.UpdateCredits(ctx, identityID, newBalance); err != nil {
		return 0, appErrors.Wrap(err, "failed to apply purchased credits")
	}

	if s.metrics != nil {
		s.metrics.CreditsPurchased.Add(float64(pack.Credits))
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(events.TypeCreditsPurchased, identityID,
		map[string]any{"pack": pack.ID, "credits": pack.Credits})); err != nil {
		s.logger.Warn("failed to publish purchase event", zap.Error(err))
	}

	s.logger.Info("credits purchased",
		zap.String("identityId", identityID),
		zap.String("pack", pack.ID),
		zap.Int("balance", newBalance))
	return newBalance, nil
}
