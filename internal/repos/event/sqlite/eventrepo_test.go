package sqlite

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/migrate"
	"github.com/derWhity/devevent/internal/models"
)

func setupTestRepo(t *testing.T) (*EventRepo, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "devevent-sqlite-test-*")
	require.NoError(t, err)

	logger := logrus.NewEntry(logrus.New())
	logger.Logger.SetOutput(io.Discard)

	db, err := sqlx.Open("sqlite3", filepath.Join(tmpDir, "test.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
		db.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	repo := New(db, logger)
	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func TestFindAllEmpty(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	events, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Len(t, events, 0)
}

func TestCreateAndFindAll(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	ev := models.Event{
		ID:          "0b9f3c2e-0d9e-4f5b-9b8e-2f0d3e1c7a10",
		Title:       "Hack Night",
		Slug:        "hack-night",
		Description: "Bring a laptop",
		Image:       "https://res.cloudinary.com/demo/image/upload/DevEvent/a.png",
		Tags:        models.StringList{"js", "css"},
		Agenda:      models.Agenda{{Time: "18:00", Topic: "Intro"}},
		Attributes:  models.Attributes{"venue": "Basement"},
		CreatedAt:   created,
	}
	require.NoError(t, repo.Create(ctx, &ev))

	events, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Title, got.Title)
	assert.Equal(t, ev.Slug, got.Slug)
	assert.Equal(t, ev.Description, got.Description)
	assert.Equal(t, ev.Image, got.Image)
	assert.Equal(t, models.StringList{"js", "css"}, got.Tags)
	assert.Equal(t, models.Agenda{{Time: "18:00", Topic: "Intro"}}, got.Agenda)
	assert.Equal(t, "Basement", got.Attributes["venue"])
	assert.True(t, created.Equal(got.CreatedAt), "expected %v, got %v", created, got.CreatedAt)
}

func TestFindAllNewestFirst(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	first := models.Event{ID: "e1", Title: "First", Image: "https://example.com/1.png", CreatedAt: base}
	second := models.Event{ID: "e2", Title: "Second", Image: "https://example.com/2.png", CreatedAt: base.Add(time.Second)}
	// Same timestamp as the second one - insertion order decides
	third := models.Event{ID: "e3", Title: "Third", Image: "https://example.com/3.png", CreatedAt: base.Add(time.Second)}
	for _, ev := range []*models.Event{&first, &second, &third} {
		require.NoError(t, repo.Create(ctx, ev))
	}

	events, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "e3", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)
	assert.Equal(t, "e1", events[2].ID)
	// Nil lists are stored as empty ones
	assert.Equal(t, models.StringList{}, events[2].Tags)
	assert.Equal(t, models.Agenda{}, events[2].Agenda)
}

func TestCreateDuplicateID(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	ev := models.Event{ID: "dup", Title: "Dup", Image: "https://example.com/d.png", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, &ev))
	assert.Error(t, repo.Create(ctx, &ev))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	logger := logrus.NewEntry(logrus.New())
	logger.Logger.SetOutput(io.Discard)
	assert.NoError(t, migrate.ExecuteMigrationsOnDb(repo.db, logger))
}
