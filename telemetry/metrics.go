// Package telemetry exposes Prometheus collectors for the playground.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransformTotal counts transform requests by engine and outcome
	// (transformed, dropped, load_failure, invocation_failure).
	TransformTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playground",
		Name:      "transform_total",
		Help:      "Transform requests by engine and outcome.",
	}, []string{"engine", "outcome"})

	// TransformDuration observes end-to-end transform latency,
	// including routine materialization and invocation.
	TransformDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playground",
		Name:      "transform_duration_seconds",
		Help:      "Transform latency by engine.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"engine"})

	// ValidateTotal counts validation requests by engine and verdict.
	ValidateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playground",
		Name:      "validate_total",
		Help:      "Validate requests by engine and verdict.",
	}, []string{"engine", "valid"})
)

// Handler returns the Prometheus exposition handler for mounting on
// the service router.
func Handler() http.Handler {
	return promhttp.Handler()
}
