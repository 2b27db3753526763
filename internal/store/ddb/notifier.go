package ddb

import (
	"sync"

	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store"
)

const subscriberBuffer = 16

// notifier fans post-write updates out to in-process subscribers. Sends are
// non-blocking and happen under the registry lock, so cancellation can
// never race a send on a closed channel.
type notifier struct {
	mu             sync.Mutex
	profileSubs    map[string]map[int]chan domain.Profile
	generationSubs map[string]map[int]chan []domain.GenerationRecord
	nextID         int
	logger         *zap.Logger
}

func newNotifier(logger *zap.Logger) *notifier {
	return &notifier{
		profileSubs:    make(map[string]map[int]chan domain.Profile),
		generationSubs: make(map[string]map[int]chan []domain.GenerationRecord),
		logger:         logger.Named("StoreNotifier"),
	}
}

func (n *notifier) subscribeProfile(identityID string) (<-chan domain.Profile, store.CancelFunc) {
	ch := make(chan domain.Profile, subscriberBuffer)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	if n.profileSubs[identityID] == nil {
		n.profileSubs[identityID] = make(map[int]chan domain.Profile)
	}
	n.profileSubs[identityID][id] = ch
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if subs, ok := n.profileSubs[identityID]; ok {
			if _, live := subs[id]; live {
				delete(subs, id)
				close(ch)
			}
		}
	}
	return ch, cancel
}

func (n *notifier) subscribeGenerations(ownerID string) (<-chan []domain.GenerationRecord, store.CancelFunc) {
	ch := make(chan []domain.GenerationRecord, subscriberBuffer)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	if n.generationSubs[ownerID] == nil {
		n.generationSubs[ownerID] = make(map[int]chan []domain.GenerationRecord)
	}
	n.generationSubs[ownerID][id] = ch
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if subs, ok := n.generationSubs[ownerID]; ok {
			if _, live := subs[id]; live {
				delete(subs, id)
				close(ch)
			}
		}
	}
	return ch, cancel
}

func (n *notifier) publishProfile(profile domain.Profile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.profileSubs[profile.IdentityID] {
		select {
		case ch <- profile:
		default:
			n.logger.Warn("profile subscriber buffer full, dropping update",
				zap.String("identityId", profile.IdentityID))
		}
	}
}

func (n *notifier) publishGenerations(ownerID string, records []domain.GenerationRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.generationSubs[ownerID] {
		select {
		case ch <- records:
		default:
			n.logger.Warn("generation subscriber buffer full, dropping update",
				zap.String("ownerId", ownerID))
		}
	}
}
