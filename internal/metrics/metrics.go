package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// outcome: ok, invalid, failed
	IssueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issue_store_operations_total",
			Help: "Issue operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func RecordIssueOperation(operation, outcome string) {
	IssueOperations.WithLabelValues(operation, outcome).Inc()
}
