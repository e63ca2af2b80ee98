// Package postgres provides an event repository that stores its data inside a PostgreSQL table
package postgres

import (
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    seq         BIGSERIAL PRIMARY KEY,
    id          VARCHAR(36) NOT NULL UNIQUE,
    title       TEXT NOT NULL DEFAULT '',
    slug        TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    image       TEXT NOT NULL,
    tags        JSONB NOT NULL DEFAULT '[]',
    agenda      JSONB NOT NULL DEFAULT '[]',
    attributes  JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events (created_at DESC, seq DESC);
`

// EventRepo is a repository that stores its data inside a PostgreSQL database
type EventRepo struct {
	pool   *pgxpool.Pool
	logger *logrus.Entry
}

// Connect creates the connection pool for the given DSN, checks the connection and makes sure the events table exists
func Connect(ctx context.Context, dsn string, logger *logrus.Entry) (*EventRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "Connect: Failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "Connect: Database not reachable")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "Connect: Failed to create events table")
	}
	return &EventRepo{
		pool:   pool,
		logger: logger,
	}, nil
}

// Create inserts a new event row
func (r *EventRepo) Create(ctx context.Context, ev *models.Event) error {
	r.logger.WithFields(logrus.Fields{log.FldID: ev.ID, log.FldTitle: ev.Title}).Debug("Adding new event")
	tags, err := ev.Tags.Value()
	if err != nil {
		return errors.Wrap(err, "Create: Failed to encode tags")
	}
	agenda, err := ev.Agenda.Value()
	if err != nil {
		return errors.Wrap(err, "Create: Failed to encode agenda")
	}
	attrs, err := ev.Attributes.Value()
	if err != nil {
		return errors.Wrap(err, "Create: Failed to encode attributes")
	}
	query := `INSERT INTO events (id, title, slug, description, image, tags, agenda, attributes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8::jsonb, $9)`
	_, err = r.pool.Exec(ctx, query,
		ev.ID, ev.Title, ev.Slug, ev.Description, ev.Image, tags, agenda, attrs, ev.CreatedAt.UTC(),
	)
	return errors.Wrap(err, "Create: Failed to insert event")
}

// FindAll returns all events, the most recently created one first
func (r *EventRepo) FindAll(ctx context.Context) ([]models.Event, error) {
	r.logger.Debug("Loading all events")
	query := `SELECT id, title, slug, description, image, tags, agenda, attributes, created_at
        FROM events ORDER BY created_at DESC, seq DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "FindAll: Failed to query events")
	}
	defer rows.Close()

	ret := []models.Event{}
	for rows.Next() {
		var ev models.Event
		var tags, agenda, attrs []byte
		err := rows.Scan(&ev.ID, &ev.Title, &ev.Slug, &ev.Description, &ev.Image, &tags, &agenda, &attrs, &ev.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "FindAll: Failed to scan event row")
		}
		if err := json.Unmarshal(tags, &ev.Tags); err != nil {
			return nil, errors.Wrapf(err, "FindAll: Broken tags on event %s", ev.ID)
		}
		if err := json.Unmarshal(agenda, &ev.Agenda); err != nil {
			return nil, errors.Wrapf(err, "FindAll: Broken agenda on event %s", ev.ID)
		}
		if err := json.Unmarshal(attrs, &ev.Attributes); err != nil {
			return nil, errors.Wrapf(err, "FindAll: Broken attributes on event %s", ev.ID)
		}
		ret = append(ret, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "FindAll: Failed to iterate event rows")
	}
	return ret, nil
}

// Close closes the connection pool
func (r *EventRepo) Close() error {
	r.pool.Close()
	return nil
}
