package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prom.NewCounterVec(prom.CounterOpts{
		Name: "jsonbin_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Name:    "jsonbin_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prom.DefBuckets,
	}, []string{"method", "route"})

	DocumentOps = prom.NewCounterVec(prom.CounterOpts{
		Name: "jsonbin_document_operations_total",
		Help: "Document operations by operation and outcome",
	}, []string{"operation", "outcome"})

	RateLimited = prom.NewCounter(prom.CounterOpts{
		Name: "jsonbin_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	IdempotentReplays = prom.NewCounter(prom.CounterOpts{
		Name: "jsonbin_idempotent_replays_total",
		Help: "Responses served from the idempotency store",
	})

	EventsPublished = prom.NewCounterVec(prom.CounterOpts{
		Name: "jsonbin_events_published_total",
		Help: "Change events handed to Kafka by outcome",
	}, []string{"event_type", "outcome"})

	EventPublishDuration = prom.NewHistogram(prom.HistogramOpts{
		Name:    "jsonbin_event_publish_duration_seconds",
		Help:    "Kafka publish latency",
		Buckets: prom.DefBuckets,
	})
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

func init() {
	prom.MustRegister(
		HTTPRequests,
		HTTPDuration,
		DocumentOps,
		RateLimited,
		IdempotentReplays,
		EventsPublished,
		EventPublishDuration,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
