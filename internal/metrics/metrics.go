// Package metrics exposes Prometheus instruments for submissions and RPC traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timerelease_submissions_total",
		Help: "Total number of transfers handed to the broadcaster",
	}, []string{"network", "mode"})

	statusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timerelease_status_transitions_total",
		Help: "Total number of submission status transitions",
	}, []string{"network", "status"})

	inFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "timerelease_submissions_in_flight",
		Help: "Current number of submissions without a terminal status",
	})

	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timerelease_rpc_requests_total",
		Help: "Total number of JSON-RPC requests",
	}, []string{"method", "outcome"})

	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timerelease_rpc_request_duration_seconds",
		Help:    "Duration of JSON-RPC requests",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method"})

	estimatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timerelease_block_estimates_total",
		Help: "Total number of unlock block estimates",
	}, []string{"prefix", "outcome"})
)

// RecordSubmission records a transfer leaving the building phase
func RecordSubmission(network, mode string) {
	submissionsTotal.WithLabelValues(network, mode).Inc()
}

// RecordStatus records a status transition
func RecordStatus(network, status string) {
	statusTransitionsTotal.WithLabelValues(network, status).Inc()
}

// SubmissionStarted increments the in-flight gauge
func SubmissionStarted() {
	inFlightGauge.Inc()
}

// SubmissionFinished decrements the in-flight gauge
func SubmissionFinished() {
	inFlightGauge.Dec()
}

// RecordRPC records one JSON-RPC request and its duration
func RecordRPC(method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	rpcRequestsTotal.WithLabelValues(method, outcome).Inc()
	rpcRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// RecordEstimate records a block estimate
func RecordEstimate(prefix string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	estimatesTotal.WithLabelValues(prefix, outcome).Inc()
}
