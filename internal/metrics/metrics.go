// Package metrics holds the Prometheus collectors of the import service.
// Collectors register with the default registry; /metrics serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcomes.
const (
	OutcomePersisted = "persisted"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
)

// Batch results.
const (
	BatchCommitted  = "committed"
	BatchRolledBack = "rolled_back"
)

// Import results.
const (
	ImportSuccess = "success"
	ImportAborted = "aborted"
	ImportFailed  = "failed"
)

var (
	Rows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accessimport",
		Name:      "rows_total",
		Help:      "CSV rows handled by the ingestion pipeline, by outcome.",
	}, []string{"outcome"})

	Batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accessimport",
		Name:      "batches_total",
		Help:      "Batch transactions, by result.",
	}, []string{"result"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "accessimport",
		Name:      "batch_duration_seconds",
		Help:      "Time to persist one batch, commit or rollback included.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accessimport",
		Name:      "imports_total",
		Help:      "Completed imports, by result.",
	}, []string{"result"})

	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "accessimport",
		Name:      "import_duration_seconds",
		Help:      "Wall time of one import.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	})

	ImportBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "accessimport",
		Name:      "import_bytes_total",
		Help:      "Bytes of CSV input read.",
	})

	ImportsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "accessimport",
		Name:      "imports_in_flight",
		Help:      "Imports currently holding a slot.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accessimport",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by route pattern and status class.",
	}, []string{"route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "accessimport",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "HTTP request latency, by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
