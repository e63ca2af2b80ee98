package internal

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/context"

	"github.com/derWhity/devevent/internal/models"
)

const metricsNamespace = "devevent"

// ServiceMetrics bundles the metrics recorded around the event service
type ServiceMetrics struct {
	RequestCount   metrics.Counter
	RequestLatency metrics.Histogram
	UploadedBytes  metrics.Counter
}

// NewServiceMetrics creates the event service metrics and registers them with the given registerer
func NewServiceMetrics(reg stdprometheus.Registerer) (*ServiceMetrics, error) {
	fieldKeys := []string{"method", "error"}
	count := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "event_service",
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, fieldKeys)
	latency := stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
		Namespace: metricsNamespace,
		Subsystem: "event_service",
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
	}, fieldKeys)
	uploaded := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "event_service",
		Name:      "uploaded_image_bytes",
		Help:      "Size of all event images uploaded for successfully created events.",
	}, []string{})
	for _, c := range []stdprometheus.Collector{count, latency, uploaded} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &ServiceMetrics{
		RequestCount:   kitprometheus.NewCounter(count),
		RequestLatency: kitprometheus.NewSummary(latency),
		UploadedBytes:  kitprometheus.NewCounter(uploaded),
	}, nil
}

// -- Instrumenting middleware -----------------------------------------------------------------------------------------

type instrumentingMiddleware struct {
	m    *ServiceMetrics
	next EventService
}

// NewInstrumentingMiddleware wraps the given event service, recording the request count and latency per method
func NewInstrumentingMiddleware(m *ServiceMetrics, next EventService) EventService {
	return &instrumentingMiddleware{m, next}
}

func (mw *instrumentingMiddleware) observe(method string, begin time.Time, err error) {
	lvs := []string{"method", method, "error", fmt.Sprint(err != nil)}
	mw.m.RequestCount.With(lvs...).Add(1)
	mw.m.RequestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) Create(ctx context.Context, draft *EventDraft) (ev *models.Event, err error) {
	defer func(begin time.Time) {
		mw.observe("Create", begin, err)
		// Rejected drafts never reach the media store
		if err == nil && draft.Image != nil {
			mw.m.UploadedBytes.Add(float64(len(draft.Image.Data)))
		}
	}(time.Now())
	return mw.next.Create(ctx, draft)
}

func (mw *instrumentingMiddleware) List(ctx context.Context) (events []models.Event, err error) {
	defer func(begin time.Time) {
		mw.observe("List", begin, err)
	}(time.Now())
	return mw.next.List(ctx)
}
