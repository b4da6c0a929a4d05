package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	GamesCreated    prometheus.Counter
	RatingsApplied  prometheus.Counter
	RatingFailures  prometheus.Counter
	IntentsReplayed prometheus.Counter
}

// New registers the service metrics on the given registerer. Tests pass
// a throwaway prometheus.NewRegistry so repeated construction never
// trips duplicate registration.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "route"}),
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Total number of games created",
		}),
		RatingsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_applied_total",
			Help:      "Total number of rating apply passes committed",
		}),
		RatingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_failures_total",
			Help:      "Total number of rating apply passes that failed after a committed game update",
		}),
		IntentsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_intents_replayed_total",
			Help:      "Total number of pending rating intents replayed by the reconciliation sweep",
		}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.GamesCreated,
		m.RatingsApplied,
		m.RatingFailures,
		m.IntentsReplayed,
	)
	return m
}
