// Package metrics holds the Prometheus collectors for extraction runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

var (
	DocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdflib_documents_total",
		Help: "The total number of documents processed",
	}, []string{"status"})

	PagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdflib_pages_total",
		Help: "The total number of pages processed",
	}, []string{"status"}) // ok, failed

	ImagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdflib_images_total",
		Help: "The total number of images extracted",
	}, []string{"status"})

	DocumentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdflib_document_duration_seconds",
		Help:    "Time spent extracting one document.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

// RecordDocument counts one finished document
func RecordDocument(status string) {
	DocumentsTotal.WithLabelValues(status).Inc()
}

// RecordPage counts one page
func RecordPage(status string) {
	PagesTotal.WithLabelValues(status).Inc()
}

// RecordImage adds n images with the given status
func RecordImage(status string, n int) {
	if n <= 0 {
		return
	}
	ImagesTotal.WithLabelValues(status).Add(float64(n))
}

// ObserveDuration records the time elapsed since start
func ObserveDuration(start time.Time) {
	DocumentDuration.Observe(time.Since(start).Seconds())
}
