// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/models"
)

const (
	eventFields = `id, title, slug, description, image, tags, agenda, attributes, createdAt`
)

// EventRepo is an repository that stores its data inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new event
func (r *EventRepo) Create(ctx context.Context, ev *models.Event) error {
	r.logger.WithFields(logrus.Fields{log.FldID: ev.ID, log.FldTitle: ev.Title}).Debug("Adding new event")
	query := fmt.Sprintf("INSERT INTO Events(%s) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)", eventFields)
	_, err := r.db.ExecContext(
		ctx,
		query,
		ev.ID,
		ev.Title,
		ev.Slug,
		ev.Description,
		ev.Image,
		ev.Tags,
		ev.Agenda,
		ev.Attributes,
		ev.CreatedAt.UTC(),
	)
	return errors.Wrap(err, "Create: Failed to insert event")
}

// FindAll returns all events, the most recently created one first
func (r *EventRepo) FindAll(ctx context.Context) ([]models.Event, error) {
	r.logger.Debug("Loading all events")
	// seq breaks ties between events created within the same timestamp
	query := fmt.Sprintf("SELECT %s FROM Events ORDER BY createdAt DESC, seq DESC", eventFields)
	ret := []models.Event{}
	if err := r.db.SelectContext(ctx, &ret, query); err != nil {
		return nil, errors.Wrap(err, "FindAll: Failed to query events")
	}
	return ret, nil
}

// Close closes the underlying database
func (r *EventRepo) Close() error {
	return r.db.Close()
}
