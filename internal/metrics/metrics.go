// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "textami"

var (
	InferenceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Total number of inference requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Duration of inference requests in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"operation"},
	)

	InferenceCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_cache_hits_total",
			Help:      "Inference requests served from the response cache",
		},
	)

	InferenceThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_throttled_total",
			Help:      "Inference requests delayed by the local rate limiter",
		},
	)

	DocumentsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_generated_total",
			Help:      "Total number of documents generated by batch runs",
		},
	)

	GenerationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Total number of rows that failed to render or store",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch generation runs in seconds",
		},
	)

	MappingProposalsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mapping_proposals_rejected_total",
			Help:      "Mapping proposals dropped during validation",
		},
		[]string{"reason"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled by route and status code",
		},
		[]string{"route", "code"},
	)
)
