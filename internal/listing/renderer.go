package listing

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/derWhity/devevent/internal/log"
	"github.com/derWhity/devevent/internal/models"
)

//go:embed templates/index.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// pageData is handed to the page template
type pageData struct {
	Events []models.Event
}

// Renderer is the HTTP handler rendering the event listing page
type Renderer struct {
	src    EventSource
	logger *logrus.Entry
}

// NewRenderer creates a listing page renderer showing the events of the given source
func NewRenderer(src EventSource, logger *logrus.Entry) *Renderer {
	return &Renderer{
		src:    src,
		logger: logger,
	}
}

// ServeHTTP renders the listing page
func (rd *Renderer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	events, err := rd.src.List(r.Context())
	if err != nil {
		rd.logger.WithError(err).Error("Failed to load events for the listing page")
		http.Error(w, "Events are currently unavailable", http.StatusBadGateway)
		return
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{Events: events}); err != nil {
		rd.logger.WithError(err).Error("Failed to render the listing page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	rd.logger.WithField(log.FldCount, len(events)).Debug("Rendered listing page")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
