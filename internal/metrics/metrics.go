// Package metrics registers and updates the gateway's Prometheus collectors.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ocrJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_jobs_total",
			Help: "OCR jobs by terminal status (succeeded/failed/timed_out).",
		},
		[]string{"status"},
	)

	ocrPollAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_poll_attempts_total",
			Help: "Status-check attempts by outcome (ok/transient/fatal).",
		},
		[]string{"outcome"},
	)

	vendorLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_request_latency_ms",
			Help:    "Vendor call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"operation", "success"},
	)

	speechRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_requests_total",
			Help: "Speech synthesis requests by result (ok/error).",
		},
		[]string{"result"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			ocrJobsTotal, ocrPollAttempts, vendorLatencyMs, speechRequestsTotal,
		)
	})
}

// JobFinished records a job reaching a terminal status.
func JobFinished(status string) {
	ocrJobsTotal.WithLabelValues(status).Inc()
}

// PollAttempt records one status-check outcome.
func PollAttempt(outcome string) {
	ocrPollAttempts.WithLabelValues(outcome).Inc()
}

// VendorRequest records latency of one outbound vendor call.
func VendorRequest(operation string, success bool, d time.Duration) {
	vendorLatencyMs.WithLabelValues(operation, strconv.FormatBool(success)).
		Observe(float64(d.Milliseconds()))
}

// SpeechRequest records one synthesis request result.
func SpeechRequest(ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	speechRequestsTotal.WithLabelValues(result).Inc()
}
