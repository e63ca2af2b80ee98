package listing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type failingSource struct{}

func (failingSource) List(_ context.Context) ([]models.Event, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestPlaceholderSource(t *testing.T) {
	events, err := PlaceholderSource(5).List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("Event %d", i+1), ev.Title)
		assert.Empty(t, ev.Image)
	}
}

func TestStaticSourceReturnsCopy(t *testing.T) {
	src := StaticSource(SampleEvents)
	events, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, len(SampleEvents))
	events[0].Title = "changed"
	assert.NotEqual(t, "changed", SampleEvents[0].Title)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(models.ListingConfig{Source: models.SourceStatic}, "")
	require.NoError(t, err)
	assert.IsType(t, StaticSource{}, src)

	src, err = NewSource(models.ListingConfig{Source: models.SourcePlaceholder}, "")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderSource(5), src)

	src, err = NewSource(models.ListingConfig{Source: models.SourceAPI, TimeoutSeconds: 1}, "http://127.0.0.1:3000")
	require.NoError(t, err)
	assert.IsType(t, &APISource{}, src)

	_, err = NewSource(models.ListingConfig{Source: models.SourceAPI}, "not a url")
	assert.Error(t, err)

	_, err = NewSource(models.ListingConfig{Source: "carrier-pigeon"}, "")
	assert.Error(t, err)
}

func TestAPISource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/events", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Events fetched successfully",
			"events": []models.Event{
				{ID: "2", Title: "Newer", Tags: models.StringList{"go"}},
				{ID: "1", Title: "Older"},
			},
		})
	}))
	defer srv.Close()

	src, err := NewAPISource(srv.URL+"/", time.Second)
	require.NoError(t, err)
	events, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Newer", events[0].Title)
	assert.Equal(t, models.StringList{"go"}, events[0].Tags)
	assert.Equal(t, "Older", events[1].Title)
}

func TestAPISourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Event fetching failed","error":"db down"}`))
	}))
	defer srv.Close()

	src, err := NewAPISource(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = src.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "Event fetching failed")
}

func TestAPISourceBrokenBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	src, err := NewAPISource(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = src.List(context.Background())
	assert.Error(t, err)
}

func TestRendererPlaceholders(t *testing.T) {
	rd := NewRenderer(PlaceholderSource(5), testLogger())

	w := httptest.NewRecorder()
	rd.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "Featured Events")
	last := -1
	for i := 1; i <= 5; i++ {
		pos := strings.Index(body, fmt.Sprintf("Event %d<", i))
		require.True(t, pos > last, "Event %d missing or out of order", i)
		last = pos
	}
	assert.NotContains(t, body, "<img")
}

func TestRendererKeepsSourceOrderAndEscapes(t *testing.T) {
	src := StaticSource{
		{ID: "b", Title: "<script>alert(1)</script>", Slug: "b", Image: "https://example.com/b.png", Tags: models.StringList{"js"}},
		{ID: "a", Title: "Alpha", Attributes: models.Attributes{"location": "Berlin"}},
	}
	rd := NewRenderer(src, testLogger())

	w := httptest.NewRecorder()
	rd.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, `src="https://example.com/b.png"`)
	assert.Contains(t, body, `href="/events/b"`)
	assert.Contains(t, body, "Berlin")
	assert.True(t, strings.Index(body, `id="event-b"`) < strings.Index(body, `id="event-a"`))
}

func TestRendererEmpty(t *testing.T) {
	rd := NewRenderer(StaticSource{}, testLogger())

	w := httptest.NewRecorder()
	rd.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No events yet")
}

func TestRendererSourceFailure(t *testing.T) {
	rd := NewRenderer(failingSource{}, testLogger())

	w := httptest.NewRecorder()
	rd.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "Featured Events")
}
