package quotes

import (
	"errors"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
)

// ErrRegistryFull is returned when the subscriber capacity bound is reached.
var ErrRegistryFull = errors.New("subscriber registry full")

// Subscriber is one live push target. Send must be safe for concurrent use
// with the subscriber's own lifecycle; a Send error is authoritative and
// removes the subscriber.
type Subscriber interface {
	ID() string
	Send(quotes []models.PopularQuote) error
}

// Registry tracks connected subscribers. Broadcast is best-effort and
// at-most-once per tick per subscriber; no ordering is guaranteed across
// subscribers.
type Registry struct {
	mu       sync.RWMutex
	members  map[string]Subscriber
	capacity int
	logger   arbor.ILogger
}

// NewRegistry creates a registry bounded to capacity subscribers.
func NewRegistry(capacity int, logger arbor.ILogger) *Registry {
	return &Registry{
		members:  make(map[string]Subscriber),
		capacity: capacity,
		logger:   logger,
	}
}

// Add registers a subscriber. Fails with ErrRegistryFull at capacity.
func (r *Registry) Add(sub Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity > 0 && len(r.members) >= r.capacity {
		return ErrRegistryFull
	}

	r.members[sub.ID()] = sub
	r.logger.Debug().Str("subscriber", sub.ID()).Int("total", len(r.members)).Msg("Subscriber added")
	return nil
}

// Remove drops a subscriber by ID. Removing an absent ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	r.logger.Debug().Str("subscriber", id).Int("total", len(r.members)).Msg("Subscriber removed")
}

// Count returns the number of connected subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Broadcast pushes the quote set to every subscriber. Subscribers whose push
// fails are removed in the same pass; others are unaffected.
func (r *Registry) Broadcast(quotes []models.PopularQuote) {
	r.mu.RLock()
	snapshot := make([]Subscriber, 0, len(r.members))
	for _, sub := range r.members {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	for _, sub := range snapshot {
		if err := sub.Send(quotes); err != nil {
			r.logger.Debug().Err(err).Str("subscriber", sub.ID()).Msg("Push failed, dropping subscriber")
			r.Remove(sub.ID())
		}
	}
}
