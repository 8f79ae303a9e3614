package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evidence-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "uploads_total",
			Help:      "Total evidence file uploads",
		},
		[]string{"content_type", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"content_type"},
	)

	// Download counter
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "downloads_total",
			Help:      "Total evidence downloads served",
		},
		[]string{"status"},
	)

	// Sweep counters
	SweepRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "sweep_removed_total",
			Help:      "Total orphaned files removed by cleanup sweeps",
		},
	)

	SweepFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "sweep_failed_total",
			Help:      "Total orphaned file removals that failed",
		},
	)

	// Chat provider counter
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "survivor",
			Subsystem: "evidence_api",
			Name:      "chat_requests_total",
			Help:      "Total chat completions by provider",
		},
		[]string{"provider", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a file upload
func RecordUpload(contentType, status string, bytes int64) {
	UploadsTotal.WithLabelValues(contentType, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(contentType).Add(float64(bytes))
	}
}

// RecordDownload records a download attempt
func RecordDownload(status string) {
	DownloadsTotal.WithLabelValues(status).Inc()
}

// RecordSweep records the outcome counts of a cleanup sweep
func RecordSweep(removed, failed int) {
	SweepRemovedTotal.Add(float64(removed))
	SweepFailedTotal.Add(float64(failed))
}

// RecordChat records a chat completion attempt
func RecordChat(provider, status string) {
	ChatRequestsTotal.WithLabelValues(provider, status).Inc()
}
