package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ImporterMetrics tracks corpus rebuilds: per-document extraction outcomes,
// strategy selection and chunking volume.
type ImporterMetrics struct {
	registry *prometheus.Registry

	documentsTotal     *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	strategyWinsTotal  *prometheus.CounterVec
	chunksPerDocument  *prometheus.HistogramVec
}

func NewImporterMetrics(service string) *ImporterMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "importer",
			Name:      "documents_total",
			Help:      "Total processed documents by final status.",
		},
		[]string{"service", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askdocs",
			Subsystem: "importer",
			Name:      "extraction_duration_seconds",
			Help:      "Per-document extraction duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	strategyWinsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "importer",
			Name:      "strategy_wins_total",
			Help:      "Total documents won by each extraction strategy.",
		},
		[]string{"service", "strategy"},
	)
	chunksPerDocument := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askdocs",
			Subsystem: "importer",
			Name:      "chunks_per_document",
			Help:      "Distribution of chunk counts per indexed document.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
		[]string{"service"},
	)

	registry.MustRegister(documentsTotal, extractionDuration, strategyWinsTotal, chunksPerDocument)

	return &ImporterMetrics{
		registry:           registry,
		documentsTotal:     documentsTotal,
		extractionDuration: extractionDuration,
		strategyWinsTotal:  strategyWinsTotal,
		chunksPerDocument:  chunksPerDocument,
	}
}

func (m *ImporterMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ImporterMetrics) RecordDocument(service, status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.documentsTotal.WithLabelValues(service, status).Inc()
	m.extractionDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *ImporterMetrics) RecordStrategyWin(service, strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.strategyWinsTotal.WithLabelValues(service, strategy).Inc()
}

func (m *ImporterMetrics) RecordChunks(service string, count int) {
	if count <= 0 {
		return
	}
	m.chunksPerDocument.WithLabelValues(service).Observe(float64(count))
}
