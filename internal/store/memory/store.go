// Package memory implements the document store boundary entirely in memory.
// It backs unit tests and local development without AWS credentials.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store"
)

const subscriberBuffer = 16

// Store keeps every record in process memory and fans updates out to
// subscribers, mirroring the push-based realtime semantics of the hosted
// document store. Notification happens under the store lock with
// non-blocking sends, so a cancelled subscriber can never be written to
// after its channel is closed.
type Store struct {
	mu          sync.Mutex
	profiles    map[string]domain.Profile
	generations map[string][]domain.GenerationRecord

	profileSubs    map[string]map[int]chan domain.Profile
	generationSubs map[string]map[int]chan []domain.GenerationRecord
	nextSubID      int

	logger *zap.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		profiles:       make(map[string]domain.Profile),
		generations:    make(map[string][]domain.GenerationRecord),
		profileSubs:    make(map[string]map[int]chan domain.Profile),
		generationSubs: make(map[string]map[int]chan []domain.GenerationRecord),
		logger:         logger.Named("MemoryStore"),
	}
}

var _ store.Store = (*Store)(nil)

// GetProfile fetches the profile keyed by identity id.
func (s *Store) GetProfile(_ context.Context, identityID string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[identityID]
	if !ok {
		return domain.Profile{}, store.ErrNotFound{Resource: "profile", ID: identityID}
	}
	return profile, nil
}

// CreateProfileIfAbsent performs a conditional create and notifies
// subscribers on success.
func (s *Store) CreateProfileIfAbsent(_ context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.IdentityID]; exists {
		return store.ErrAlreadyExists{Resource: "profile", ID: profile.IdentityID}
	}
	s.profiles[profile.IdentityID] = profile
	s.notifyProfileLocked(profile)
	return nil
}

// UpdateCredits overwrites the balance. Updating an absent profile is a
// not-found error.
func (s *Store) UpdateCredits(_ context.Context, identityID string, credits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[identityID]
	if !ok {
		return store.ErrNotFound{Resource: "profile", ID: identityID}
	}
	profile.Credits = credits
	s.profiles[identityID] = profile
	s.notifyProfileLocked(profile)
	return nil
}

// SubscribeProfile streams the profile; the initial snapshot is only
// delivered when the record already exists.
func (s *Store) SubscribeProfile(_ context.Context, identityID string) (<-chan domain.Profile, store.CancelFunc, error) {
	ch := make(chan domain.Profile, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	if s.profileSubs[identityID] == nil {
		s.profileSubs[identityID] = make(map[int]chan domain.Profile)
	}
	s.profileSubs[identityID][id] = ch
	if profile, exists := s.profiles[identityID]; exists {
		ch <- profile
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.profileSubs[identityID]; ok {
			if _, live := subs[id]; live {
				delete(subs, id)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}

// AppendGeneration writes one record and notifies subscribers with the
// owner's full record set.
func (s *Store) AppendGeneration(_ context.Context, record domain.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[record.OwnerID] = append(s.generations[record.OwnerID], record)
	s.notifyGenerationsLocked(record.OwnerID)
	return nil
}

// ListGenerations returns all records owned by ownerID, oldest first.
func (s *Store) ListGenerations(_ context.Context, ownerID string) ([]domain.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotGenerationsLocked(ownerID), nil
}

// SubscribeGenerations streams the owner's record set, starting with a
// snapshot (possibly empty).
func (s *Store) SubscribeGenerations(_ context.Context, ownerID string) (<-chan []domain.GenerationRecord, store.CancelFunc, error) {
	ch := make(chan []domain.GenerationRecord, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	if s.generationSubs[ownerID] == nil {
		s.generationSubs[ownerID] = make(map[int]chan []domain.GenerationRecord)
	}
	s.generationSubs[ownerID][id] = ch
	ch <- s.snapshotGenerationsLocked(ownerID)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.generationSubs[ownerID]; ok {
			if _, live := subs[id]; live {
				delete(subs, id)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}

// snapshotGenerationsLocked copies the owner's records sorted oldest first.
func (s *Store) snapshotGenerationsLocked(ownerID string) []domain.GenerationRecord {
	records := make([]domain.GenerationRecord, len(s.generations[ownerID]))
	copy(records, s.generations[ownerID])
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records
}

func (s *Store) notifyProfileLocked(profile domain.Profile) {
	for _, ch := range s.profileSubs[profile.IdentityID] {
		select {
		case ch <- profile:
		default:
			s.logger.Warn("profile subscriber buffer full, dropping update",
				zap.String("identityId", profile.IdentityID))
		}
	}
}

func (s *Store) notifyGenerationsLocked(ownerID string) {
	records := s.snapshotGenerationsLocked(ownerID)
	for _, ch := range s.generationSubs[ownerID] {
		select {
		case ch <- records:
		default:
			s.logger.Warn("generation subscriber buffer full, dropping update",
				zap.String("ownerId", ownerID))
		}
	}
}
