// Package notify fans activity-log entries out to people and systems that
// want to hear about them.
package notify

import (
	"context"
	"sync"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// Notifier delivers one activity to one channel.
type Notifier interface {
	Notify(ctx context.Context, a *domain.Activity) error
	Name() string
}

// Registry maps activity types to the notifiers subscribed to them.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[domain.ActivityType][]Notifier
}

func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[domain.ActivityType][]Notifier)}
}

// Register subscribes n to every listed type. Registering the same notifier
// name twice for a type replaces the earlier one. Safe to call concurrently.
func (r *Registry) Register(n Notifier, types ...domain.ActivityType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, typ := range types {
		list := r.notifiers[typ][:0:0]
		for _, existing := range r.notifiers[typ] {
			if existing.Name() != n.Name() {
				list = append(list, existing)
			}
		}
		r.notifiers[typ] = append(list, n)
	}
}

// For returns the notifiers subscribed to typ, possibly none.
func (r *Registry) For(typ domain.ActivityType) []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notifier, len(r.notifiers[typ]))
	copy(out, r.notifiers[typ])
	return out
}
