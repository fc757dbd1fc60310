// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_tracker_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transfer_tracker_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "path"})

	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_tracker_messages_received_total",
		Help: "Inbound webhook messages by provider type",
	}, []string{"type"})

	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_tracker_messages_processed_total",
		Help: "Messages run through the pipeline by kind",
	}, []string{"kind"})

	ExtractionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_tracker_extraction_outcomes_total",
		Help: "Extraction results: none, one, many, unavailable, malformed",
	}, []string{"outcome"})

	ModelLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transfer_tracker_model_call_duration_seconds",
		Help:    "Generative model round trip latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	LedgerAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_tracker_ledger_appends_total",
		Help: "Ledger append attempts by result",
	}, []string{"result"})
)
