// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FactFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "facts",
		Name:      "fetches_total",
		Help:      "Joined fact fetches broken down by result.",
	}, []string{"result"})

	FactFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "planner",
		Subsystem: "facts",
		Name:      "fetch_latency_seconds",
		Help:      "Latency of joined fact fetches including the grant lookup.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.025,
			0.05, 0.1, 0.25, 0.5,
			1, 2.5, 5,
		},
	}, []string{"result"})

	FactFetchRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "planner",
		Subsystem: "facts",
		Name:      "fetch_rows",
		Help:      "Rows returned per successful fetch.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	AssistantRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "assistant",
		Name:      "requests_total",
		Help:      "Assistant chat requests broken down by result.",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events handed to a publisher, by sink and result.",
	}, []string{"sink", "result"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Stream events handled by the local listener, by event type and result.",
	}, []string{"event_type", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route prefix and envelope result.",
	}, []string{"route", "result"})
)

// Result maps an error onto the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch records one fact fetch.
func ObserveFetch(err error, rows int, latency time.Duration) {
	result := Result(err)
	FactFetches.WithLabelValues(result).Inc()
	FactFetchLatency.WithLabelValues(result).Observe(latency.Seconds())
	if err == nil {
		FactFetchRows.Observe(float64(rows))
	}
}
