package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/ctxhelper"
	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/media"
	"github.com/derWhity/devevent/internal/models"
	"github.com/derWhity/devevent/internal/repos"
	"github.com/derWhity/devevent/internal/slug"
)

// EventService provides service functions for working with events
type EventService interface {
	// Create uploads the draft's image and stores the draft as a new event
	Create(ctx context.Context, draft *EventDraft) (*models.Event, error)
	// List returns all stored events, the most recently created one first
	List(ctx context.Context) ([]models.Event, error)
}

// -- EventService implementation --------------------------------------------------------------------------------------

// EventService implementation
type eventService struct {
	repo     repos.EventRepo
	store    media.Store
	folder   string
	validate *validator.Validate
	logger   *logrus.Entry
	now      func() time.Time
}

// NewEventService creates a new event service instance storing images in the given folder of the media store
func NewEventService(repo repos.EventRepo, store media.Store, folder string, logger *logrus.Entry) EventService {
	return &eventService{
		repo:     repo,
		store:    store,
		folder:   folder,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates the draft, uploads its image and stores the event. Bad input is rejected before anything is
// uploaded or written
func (s *eventService) Create(ctx context.Context, draft *EventDraft) (*models.Event, error) {
	logger := ctxhelper.LoggerOr(ctx, s.logger)
	if draft.Image == nil || len(draft.Image.Data) == 0 {
		return nil, ErrMissingImage
	}
	ev := models.Event{
		Tags:       models.StringList{},
		Agenda:     models.Agenda{},
		Attributes: models.Attributes{},
	}
	if err := decodeList(draft.Tags, fieldTags, &ev.Tags); err != nil {
		return nil, err
	}
	if err := decodeList(draft.Agenda, fieldAgenda, &ev.Agenda); err != nil {
		return nil, err
	}
	for key, value := range draft.Fields {
		switch key {
		case fieldTitle:
			ev.Title = strings.TrimSpace(value)
		case fieldDescription:
			ev.Description = value
		case fieldSlug:
			ev.Slug = slug.Make(value)
		case fieldImage, fieldTags, fieldAgenda:
			// Handled separately
		default:
			ev.Attributes[key] = value
		}
	}
	if ev.Slug == "" {
		ev.Slug = slug.Make(ev.Title)
	}
	logger = logger.WithField(log.FldTitle, ev.Title)

	upl, err := s.store.Upload(ctx, media.Object{
		Filename: draft.Image.Filename,
		Data:     draft.Image.Data,
		Folder:   s.folder,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to upload event image")
		return nil, makeCreationFailedError(err)
	}
	ev.Image = upl.URL
	ev.ID = uuid.New().String()
	ev.CreatedAt = s.now().UTC()

	if err := s.persist(ctx, &ev); err != nil {
		logger.WithError(err).WithField(log.FldID, ev.ID).Error("Failed to store event")
		// Uploaded media is not cleaned up - leave a trace for manual reconciliation
		logger.WithFields(logrus.Fields{
			log.FldMedia: upl.PublicID,
			log.FldURL:   upl.URL,
		}).Warn("Uploaded image is orphaned")
		return nil, makeCreationFailedError(err)
	}
	logger.WithField(log.FldID, ev.ID).Info("Event created")
	return &ev, nil
}

// persist validates the completed event and writes it to the repository
func (s *eventService) persist(ctx context.Context, ev *models.Event) error {
	if err := s.validate.Struct(ev); err != nil {
		return errors.Wrap(err, "persist: Event failed validation")
	}
	return s.repo.Create(ctx, ev)
}

// List returns all stored events, the most recently created one first
func (s *eventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.FindAll(ctx)
	if err != nil {
		ctxhelper.LoggerOr(ctx, s.logger).WithError(err).Error("Event list query failed")
		return nil, makeFetchFailedError(err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// decodeList decodes a JSON-serialized list form field into dest. An empty field or a JSON null leaves dest untouched
func decodeList(raw, field string, dest interface{}) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return makeMalformedRequestError(fmt.Sprintf("Invalid %s format: %v", field, err))
	}
	return nil
}
