// Package inmem provides an event repository that holds the events in-memory
package inmem

import (
	"sort"
	"sync"

	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

// EventRepo is an event repository that stores the events in-memory
type EventRepo struct {
	mtx    sync.RWMutex
	events []models.Event
}

// New creates a new, empty event repository instance
func New() *EventRepo {
	return &EventRepo{}
}

// Create stores a copy of the given event
func (r *EventRepo) Create(_ context.Context, ev *models.Event) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

// FindAll returns all events, the most recently created one first
func (r *EventRepo) FindAll(_ context.Context) ([]models.Event, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	ret := make([]models.Event, 0, len(r.events))
	// Newest insert first so that the stable sort keeps this order for equal timestamps
	for i := len(r.events) - 1; i >= 0; i-- {
		ret = append(ret, r.events[i])
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	return ret, nil
}

// Close is a no-op
func (r *EventRepo) Close() error {
	return nil
}
