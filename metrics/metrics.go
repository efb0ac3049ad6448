// Package metrics declares the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, route, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locode_http_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// GenerationsTotal counts generation calls by form and outcome
	// (success, error, stale).
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locode_generations_total",
		Help: "Generation requests sent to the model, by outcome.",
	}, []string{"form", "outcome"})

	// GenerationDuration tracks time spent waiting on the model.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "locode_generation_duration_seconds",
		Help:    "Time spent on generation calls.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"form"})

	// ValidationsTotal counts validator runs by format and resulting status.
	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locode_validations_total",
		Help: "Translation-file validations, by format and status.",
	}, []string{"format", "status"})
)

// Generation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)
