// Package sync maintains a live, locally-cached view of one user's credit
// balance and generated-image gallery, fed by document store subscriptions.
package sync

import (
	"context"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store"
)

// Snapshot is the merged local view pushed to consumers on every change.
type Snapshot struct {
	Profile *domain.Profile
	Gallery []string
}

// Syncer owns both subscriptions for a single identity. It is created on
// login and stopped on logout or identity change; Stop tears down both
// subscriptions and the pump goroutines.
type Syncer struct {
	store  store.Store
	logger *zap.Logger

	mu      gosync.Mutex
	profile *domain.Profile
	gallery []string

	updates chan Snapshot

	cancelProfile store.CancelFunc
	cancelGens    store.CancelFunc
	wg            gosync.WaitGroup
	started       bool
	stopped       bool
}

// NewSyncer creates an idle syncer over the given store.
func NewSyncer(st store.Store, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		store:   st,
		logger:  logger.Named("Syncer"),
		updates: make(chan Snapshot, 16),
	}
}

// Start opens both subscriptions for the identity. On the very first
// observation of a user with no profile record, one is created with a zero
// balance; losing that creation race is non-fatal and merely logged.
func (s *Syncer) Start(ctx context.Context, identityID, email string) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	profileCh, cancelProfile, err := s.store.SubscribeProfile(ctx, identityID)
	if err != nil {
		return err
	}

	if _, err := s.store.GetProfile(ctx, identityID); store.IsNotFound(err) {
		createErr := s.store.CreateProfileIfAbsent(ctx, domain.NewProfile(identityID, email))
		if createErr != nil && !store.IsAlreadyExists(createErr) {
			cancelProfile()
			return createErr
		}
		if store.IsAlreadyExists(createErr) {
			s.logger.Debug("profile already created by a concurrent writer",
				zap.String("identityId", identityID))
		}
	} else if err != nil {
		cancelProfile()
		return err
	}

	gensCh, cancelGens, err := s.store.SubscribeGenerations(ctx, identityID)
	if err != nil {
		cancelProfile()
		return err
	}

	s.mu.Lock()
	s.cancelProfile = cancelProfile
	s.cancelGens = cancelGens
	s.mu.Unlock()

	s.wg.Add(2)
	go s.pumpProfile(profileCh)
	go s.pumpGenerations(gensCh)
	return nil
}

// Stop tears down both subscriptions. After Stop returns no further
// snapshots are delivered. Calling Stop more than once is safe.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancelProfile, cancelGens := s.cancelProfile, s.cancelGens
	s.cancelProfile, s.cancelGens = nil, nil
	s.mu.Unlock()

	if cancelProfile != nil {
		cancelProfile()
	}
	if cancelGens != nil {
		cancelGens()
	}
	s.wg.Wait()
	close(s.updates)
}

// Profile returns the latest cached profile, if one has been observed.
func (s *Syncer) Profile() (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

// Gallery returns the latest projection: all images across the user's
// records, deduplicated, newest-record-first.
func (s *Syncer) Gallery() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	gallery := make([]string, len(s.gallery))
	copy(gallery, s.gallery)
	return gallery
}

// Updates delivers a merged snapshot after every observed change. The
// channel closes when the syncer stops.
func (s *Syncer) Updates() <-chan Snapshot {
	return s.updates
}

func (s *Syncer) pumpProfile(ch <-chan domain.Profile) {
	defer s.wg.Done()
	for profile := range ch {
		p := profile
		s.mu.Lock()
		s.profile = &p
		s.mu.Unlock()
		s.publish()
	}
}

func (s *Syncer) pumpGenerations(ch <-chan []domain.GenerationRecord) {
	defer s.wg.Done()
	for records := range ch {
		view := domain.GalleryView(records)
		s.mu.Lock()
		s.gallery = view
		s.mu.Unlock()
		s.publish()
	}
}

func (s *Syncer) publish() {
	s.mu.Lock()
	snap := Snapshot{Profile: s.profile, Gallery: s.gallery}
	s.mu.Unlock()

	select {
	case s.updates <- snap:
	default:
		s.logger.Warn("snapshot consumer too slow, dropping update")
	}
}
