// Package metrics provides Prometheus metrics for the catalog browser
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog persistence
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Catalog loads by source and status",
		},
		[]string{"source", "status"},
	)

	CatalogSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_saves_total",
			Help: "Catalog saves by status",
		},
		[]string{"status"},
	)

	SkippedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_skipped_lines_total",
			Help: "Malformed catalog lines skipped while loading",
		},
	)

	// Images
	ImagesUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_images_uploaded_total",
			Help: "Uploaded images by outcome (saved, rejected, ignored)",
		},
		[]string{"outcome"},
	)

	// Search
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_searches_total",
			Help: "Searches by result state",
		},
		[]string{"state", "channel"},
	)

	// Sessions
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_sessions_active",
			Help: "Open editing sessions",
		},
	)

	// HTTP
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordSave records a catalog save outcome
func RecordSave(err error) {
	CatalogSaves.WithLabelValues(status(err)).Inc()
}

// RecordLoad records a catalog load outcome
func RecordLoad(source string, err error) {
	CatalogLoads.WithLabelValues(source, status(err)).Inc()
}

// RecordUploads records per-file upload outcomes
func RecordUploads(saved, rejected, ignored int) {
	ImagesUploaded.WithLabelValues("saved").Add(float64(saved))
	ImagesUploaded.WithLabelValues("rejected").Add(float64(rejected))
	ImagesUploaded.WithLabelValues("ignored").Add(float64(ignored))
}

// RecordSearch records a search result state
func RecordSearch(state, channel string) {
	Searches.WithLabelValues(state, channel).Inc()
}

// ObserveRequest records HTTP request latency
func ObserveRequest(method, route, status string, took time.Duration) {
	RequestDuration.WithLabelValues(method, route, status).Observe(took.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
