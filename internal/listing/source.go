// Package listing renders the public event listing page from an exchangeable event source
package listing

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

// EventSource provides the events shown on the listing page. The events are rendered in the order returned
type EventSource interface {
	List(ctx context.Context) ([]models.Event, error)
}

// NewSource creates the event source selected in the configuration. publicURL is the base URL of the event API
func NewSource(conf models.ListingConfig, publicURL string) (EventSource, error) {
	switch conf.Source {
	case models.SourceAPI, "":
		return NewAPISource(publicURL, time.Duration(conf.TimeoutSeconds)*time.Second)
	case models.SourceStatic:
		return StaticSource(SampleEvents), nil
	case models.SourcePlaceholder:
		return PlaceholderSource(5), nil
	}
	return nil, fmt.Errorf("unknown listing source '%s'", conf.Source)
}

// -- API source -------------------------------------------------------------------------------------------------------

// apiListResponse is the body returned by the event list API
type apiListResponse struct {
	Message string         `json:"message"`
	Events  []models.Event `json:"events"`
}

// APISource fetches the events from the event list API over HTTP
type APISource struct {
	list endpoint.Endpoint
}

// NewAPISource creates a source calling the event API at baseURL. A timeout of 0 means no timeout
func NewAPISource(baseURL string, timeout time.Duration) (*APISource, error) {
	tgt, err := url.Parse(strings.TrimRight(baseURL, "/") + "/api/events")
	if err != nil {
		return nil, errors.Wrap(err, "NewAPISource: Invalid base URL")
	}
	if tgt.Scheme == "" || tgt.Host == "" {
		return nil, errors.Errorf("NewAPISource: Base URL '%s' is not absolute", baseURL)
	}
	client := httptransport.NewClient(
		http.MethodGet,
		tgt,
		encodeNilRequest,
		decodeListResponse,
		httptransport.SetClient(newHTTPClient(timeout)),
	)
	return &APISource{list: client.Endpoint()}, nil
}

// List calls the event API
func (s *APISource) List(ctx context.Context) ([]models.Event, error) {
	res, err := s.list(ctx, nil)
	if err != nil {
		return nil, err
	}
	return res.([]models.Event), nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

func encodeNilRequest(_ context.Context, r *http.Request, _ interface{}) error {
	r.Header.Set("Accept", "application/json")
	return nil
}

func decodeListResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var body apiListResponse
	decodeErr := json.NewDecoder(r.Body).Decode(&body)
	if r.StatusCode != http.StatusOK {
		if decodeErr == nil && body.Message != "" {
			return nil, errors.Errorf("event API answered with status %d: %s", r.StatusCode, body.Message)
		}
		return nil, errors.Errorf("event API answered with status %d", r.StatusCode)
	}
	if decodeErr != nil {
		return nil, errors.Wrap(decodeErr, "decodeListResponse: Invalid event list body")
	}
	if body.Events == nil {
		body.Events = []models.Event{}
	}
	return body.Events, nil
}

// -- Static sources ---------------------------------------------------------------------------------------------------

// StaticSource always returns the same fixed list of events
type StaticSource []models.Event

// List returns a copy of the fixed list
func (s StaticSource) List(_ context.Context) ([]models.Event, error) {
	ret := make([]models.Event, len(s))
	copy(ret, s)
	return ret, nil
}

// PlaceholderSource returns the given number of numbered placeholder events without any further data
type PlaceholderSource int

// List returns the placeholders "Event 1" to "Event n"
func (n PlaceholderSource) List(_ context.Context) ([]models.Event, error) {
	ret := make([]models.Event, 0, int(n))
	for i := 1; i <= int(n); i++ {
		ret = append(ret, models.Event{
			ID:    fmt.Sprintf("placeholder-%d", i),
			Title: fmt.Sprintf("Event %d", i),
		})
	}
	return ret, nil
}

// SampleEvents is the fixed set of events served by the static source
var SampleEvents = []models.Event{
	{
		ID:     "sample-react-conf",
		Title:  "React Conf 2026",
		Slug:   "react-conf-2026",
		Image:  "/images/event1.png",
		Tags:   models.StringList{"react", "frontend", "conference"},
		Agenda: models.Agenda{},
		Attributes: models.Attributes{
			"location": "Henderson, NV, USA",
			"date":     "2026-05-14",
			"time":     "09:00",
		},
	},
	{
		ID:     "sample-kubecon",
		Title:  "KubeCon + CloudNativeCon Europe",
		Slug:   "kubecon-cloudnativecon-europe",
		Image:  "/images/event2.png",
		Tags:   models.StringList{"kubernetes", "cloud", "devops"},
		Agenda: models.Agenda{},
		Attributes: models.Attributes{
			"location": "Amsterdam, Netherlands",
			"date":     "2026-03-23",
			"time":     "09:00",
		},
	},
	{
		ID:     "sample-hack-the-north",
		Title:  "Hack the North",
		Slug:   "hack-the-north",
		Image:  "/images/event3.png",
		Tags:   models.StringList{"hackathon", "students"},
		Agenda: models.Agenda{},
		Attributes: models.Attributes{
			"location": "Waterloo, ON, Canada",
			"date":     "2026-09-12",
			"time":     "18:00",
		},
	},
	{
		ID:     "sample-gophercon",
		Title:  "GopherCon",
		Slug:   "gophercon",
		Image:  "/images/event4.png",
		Tags:   models.StringList{"go", "backend", "conference"},
		Agenda: models.Agenda{},
		Attributes: models.Attributes{
			"location": "Seattle, WA, USA",
			"date":     "2026-08-26",
			"time":     "09:30",
		},
	},
	{
		ID:     "sample-jsnation",
		Title:  "JSNation Meetup",
		Slug:   "jsnation-meetup",
		Image:  "/images/event5.png",
		Tags:   models.StringList{"javascript", "meetup"},
		Agenda: models.Agenda{},
		Attributes: models.Attributes{
			"location": "Online",
			"date":     "2026-06-11",
			"time":     "17:00",
		},
	},
}
