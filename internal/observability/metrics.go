package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reparto", Name: "assignments_total", Help: "Order assignment attempts by outcome"},
		[]string{"outcome"},
	)
	CompletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "reparto", Name: "completions_total", Help: "Delivered orders"},
	)
	LocationSamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reparto", Name: "location_samples_total", Help: "Ingested location samples by result"},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reparto", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reparto",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
