// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrendComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agrigenie",
		Name:      "trend_computations_total",
		Help:      "Trend computations by resulting direction.",
	}, []string{"trend"})

	UpstreamFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agrigenie",
		Name:      "upstream_fetch_duration_seconds",
		Help:      "Latency of market feed requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source", "outcome"})

	SnapshotsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agrigenie",
		Name:      "snapshots_recorded_total",
		Help:      "Trend snapshots written to the recorder.",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agrigenie",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "status"})
)

// Outcome maps an error to an "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
