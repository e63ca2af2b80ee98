package mongo

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

// Set to a MongoDB connection URI to run the tests against a real server
const envTestURI = "DEVEVENT_TEST_MONGODB_URI"

func setupTestRepo(t *testing.T) *EventRepo {
	t.Helper()
	uri := os.Getenv(envTestURI)
	if uri == "" {
		t.Skipf("%s not set", envTestURI)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	collection := "events_test_" + uuid.New().String()[:8]
	repo, err := Connect(context.Background(), uri, "devevent_test", collection, logrus.NewEntry(logger))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		repo.coll.Drop(ctx)
		repo.counters.DeleteOne(ctx, bson.M{"_id": collection})
		repo.Close()
	})
	return repo
}

func newEvent(title string, createdAt time.Time) *models.Event {
	return &models.Event{
		ID:        uuid.New().String(),
		Title:     title,
		Image:     "https://res.example.com/DevEvent/" + title + ".png",
		Tags:      models.StringList{"go"},
		Agenda:    models.Agenda{{Time: "18:00", Topic: "Intro"}},
		CreatedAt: createdAt,
	}
}

func TestFindAllEmpty(t *testing.T) {
	repo := setupTestRepo(t)

	events, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestFindAllNewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// e2 to e4 share the same millisecond
	for _, ev := range []*models.Event{
		newEvent("e1", base),
		newEvent("e2", base.Add(time.Second)),
		newEvent("e3", base.Add(time.Second)),
		newEvent("e4", base.Add(time.Second+100*time.Microsecond)),
	} {
		require.NoError(t, repo.Create(ctx, ev))
	}

	events, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 4)
	titles := []string{}
	for _, ev := range events {
		titles = append(titles, ev.Title)
	}
	assert.Equal(t, []string{"e4", "e3", "e2", "e1"}, titles)
	assert.Equal(t, models.StringList{"go"}, events[0].Tags)
	assert.Equal(t, models.Agenda{{Time: "18:00", Topic: "Intro"}}, events[0].Agenda)
}
