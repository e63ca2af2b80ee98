// Package repos contains the repository interfaces needed in DevEvent
// It exists to prevent circular dependencies between devevent and the repo implementations
package repos

import (
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

// EventRepo defines a repository that handles storing and querying events
type EventRepo interface {
	// Create stores a new event. The event is written unconditionally - there is no duplicate detection
	Create(ctx context.Context, ev *models.Event) error
	// FindAll returns all stored events, the most recently created one first
	FindAll(ctx context.Context) ([]models.Event, error)
	// Close releases the connection held by the repository
	Close() error
}
